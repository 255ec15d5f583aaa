// Package puzzles configuration constants
package puzzles

// Thread and block dimensions
const (
	// DefaultBlockSize is the block size used by launch helpers when the
	// caller does not pick one.
	DefaultBlockSize = 256

	// MaxThreadsPerBlock caps Dim3 block sizes (CUDA compatibility). Every
	// single-block puzzle must fit within it.
	MaxThreadsPerBlock = 1024

	// MaxSharedPerBlock caps the total shared-tile capacity a block may
	// allocate, in float32 elements. Mirrors the ~48KB shared memory of a
	// real streaming multiprocessor.
	MaxSharedPerBlock = 12 * 1024
)

// Memory pool parameters
const (
	// MemoryAlignment for device allocations, in bytes. Cache-line sized so
	// adjacent buffers never share a line.
	MemoryAlignment = 64
)

// Numerical constants
const (
	// Float32Epsilon is the machine epsilon for float32.
	Float32Epsilon = 1.192092896e-07

	// MaxULPDiff is the default maximum ULP difference accepted when
	// comparing float32 results.
	MaxULPDiff = 4
)
