package puzzles

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents a compute device. Here this is the CPU with its cores
// and available memory, reported through the same fields a GPU would fill.
type Device struct {
	ID         int    // Unique device identifier
	Name       string // Human-readable device name
	TotalMem   uint64 // Total available memory in bytes
	NumCores   int    // Number of CPU cores
	MaxThreads int    // Maximum threads per block
}

// Context represents an execution context for puzzle kernels.
// It manages device resources, memory allocation, and stream execution.
type Context struct {
	device        *Device
	mu            sync.Mutex
	streams       map[int]*Stream
	streamID      int32
	memory        *MemoryPool
	defaultStream *Stream
}

// Stream represents an ordered sequence of operations that execute
// asynchronously. Operations within a stream execute in order, but
// operations in different streams may execute concurrently.
//
// Errors raised while a task runs (device-side faults, aborted launches)
// are recorded on the stream and reported by the next Synchronize call.
type Stream struct {
	id    int
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	errMu sync.Mutex
	err   error // first unreported task error
}

// Dim3 represents 3D dimensions for grid and block configurations.
// This matches CUDA's dim3 structure for kernel launch parameters.
type Dim3 struct {
	X, Y, Z int
}

// ThreadID identifies a thread's position within the execution hierarchy.
// It provides the same indexing semantics as CUDA's built-in variables:
// blockIdx, threadIdx, blockDim, and gridDim.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Kernel represents a compute kernel that can be executed in parallel.
// Implementations should be thread-safe as Execute will be called
// concurrently from multiple threads.
type Kernel interface {
	Execute(tid ThreadID, args ...interface{})
}

// KernelFunc is a function that can be launched as a kernel.
// It receives thread identification and variadic arguments.
type KernelFunc func(tid ThreadID, args ...interface{})

// BlockKernelFunc is a cooperative kernel: every thread of a block runs as
// its own goroutine and receives a Thread, which adds Barrier and Shared to
// the plain ThreadID view. See LaunchCooperative.
type BlockKernelFunc func(t *Thread, args ...interface{})

// DevicePtr represents a pointer to device memory. It provides type-safe
// access to device memory and supports pointer arithmetic through the
// Offset method. Use the type conversion methods (Float32, Int32, ...) to
// access the underlying data with proper type safety.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// Global runtime state
var (
	defaultDevice  *Device
	defaultContext *Context
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		defaultDevice = &Device{
			ID:         0,
			Name:       deviceName(),
			TotalMem:   systemMemory(),
			NumCores:   runtime.NumCPU(),
			MaxThreads: MaxThreadsPerBlock,
		}

		defaultContext = &Context{
			device:  defaultDevice,
			streams: make(map[int]*Stream),
			memory:  NewMemoryPool(),
		}

		defaultContext.defaultStream = defaultContext.CreateStream()
	})
}

// Malloc allocates device memory of the specified size in bytes.
// The memory is cache-line aligned.
//
// A zero-size allocation succeeds and returns a pointer that cannot be
// dereferenced: any kernel that indexes into it faults, and the launch
// fails at Synchronize. Sizing a buffer as zero when a kernel will read it
// is a caller error, not an allocator defect.
func Malloc(size int) (DevicePtr, error) {
	return defaultContext.Malloc(size)
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with the zero-value DevicePtr.
func Free(ptr DevicePtr) error {
	return defaultContext.Free(ptr)
}

// Memcpy copies memory between host and device.
// Supports DevicePtr and Go slice endpoints ([]float32, []int32, []byte).
//
// Example:
//
//	hostData := make([]float32, 1024)
//	d_data, _ := puzzles.Malloc(1024 * 4)
//	err := puzzles.Memcpy(d_data, hostData, 1024*4, puzzles.MemcpyHostToDevice)
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	return defaultContext.Memcpy(dst, src, size, kind)
}

// Launch executes a kernel on the default stream.
// The kernel is executed across a grid of thread blocks; threads within a
// block run sequentially, so kernels launched this way must not call
// Barrier. Use LaunchCooperative for kernels that synchronize.
func Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return defaultContext.Launch(kernel, grid, block, args...)
}

// LaunchFunc executes a kernel function on the default stream.
func LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return defaultContext.LaunchFunc(fn, grid, block, args...)
}

// LaunchCooperative executes a cooperative kernel on the default stream.
// Every thread of a block runs as its own goroutine; threads of one block
// may synchronize with Thread.Barrier and share Tiles obtained from
// Thread.Shared. Blocks remain mutually unsynchronized.
func LaunchCooperative(fn BlockKernelFunc, grid, block Dim3, args ...interface{}) error {
	return defaultContext.LaunchCooperative(fn, grid, block, args...)
}

// Synchronize waits for all operations on all streams to complete and
// reports the first error any of them raised. A device-side fault during an
// asynchronous launch surfaces here, not at the launch call.
func Synchronize() error {
	return defaultContext.Synchronize()
}

// GetDevice returns the current device information.
func GetDevice() *Device {
	return defaultDevice
}

// SetDevice sets the active device (no-op for device 0)
func SetDevice(id int) error {
	if id != 0 {
		return ErrInvalidDevice
	}
	return nil
}

// GetDeviceCount returns the number of available devices. Always 1.
func GetDeviceCount() int {
	return 1
}

// GetDeviceProperties returns device properties
func GetDeviceProperties(id int) (*Device, error) {
	if id != 0 {
		return nil, NewInvalidArgError("GetDeviceProperties", fmt.Sprintf("invalid device ID: %d", id))
	}
	return defaultDevice, nil
}

// Context methods

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() *Stream {
	id := int(atomic.AddInt32(&ctx.streamID, 1))
	stream := &Stream{
		id:    id,
		tasks: make(chan func(), 1000),
		done:  make(chan struct{}),
	}

	go stream.worker()

	ctx.mu.Lock()
	ctx.streams[id] = stream
	ctx.mu.Unlock()
	return stream
}

// Launch executes a kernel on the default stream
func (ctx *Context) Launch(kernel Kernel, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchStream(kernel, grid, block, ctx.defaultStream, args...)
}

// LaunchFunc executes a kernel function on the default stream
func (ctx *Context) LaunchFunc(fn KernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchFuncStream(fn, grid, block, ctx.defaultStream, args...)
}

// LaunchCooperative executes a cooperative kernel on the default stream
func (ctx *Context) LaunchCooperative(fn BlockKernelFunc, grid, block Dim3, args ...interface{}) error {
	return ctx.LaunchCooperativeStream(fn, grid, block, ctx.defaultStream, args...)
}

// LaunchStream executes a kernel on a specific stream
func (ctx *Context) LaunchStream(kernel Kernel, grid, block Dim3, stream *Stream, args ...interface{}) error {
	return ctx.launchInternal(kernel.Execute, grid, block, stream, args...)
}

// LaunchFuncStream executes a kernel function on a specific stream
func (ctx *Context) LaunchFuncStream(fn KernelFunc, grid, block Dim3, stream *Stream, args ...interface{}) error {
	return ctx.launchInternal(fn, grid, block, stream, args...)
}

// Synchronize waits for all streams to complete and returns the first
// error recorded by any of them. The error state is cleared once reported.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	var first error
	for _, s := range streams {
		if err := s.Synchronize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stream methods

// worker processes tasks for a stream
func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Synchronize waits for all tasks in the stream to complete and returns
// the first error any of them recorded, clearing it.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	s.errMu.Lock()
	err := s.err
	s.err = nil
	s.errMu.Unlock()
	return err
}

// Submit adds a task to the stream
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}

// record notes a task error; the first one sticks until Synchronize.
func (s *Stream) record(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

// Helper functions

// Global returns the global thread index
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalX returns the global X index
func (tid ThreadID) GlobalX() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y index
func (tid ThreadID) GlobalY() int {
	return tid.BlockIdx.Y*tid.BlockDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z index
func (tid ThreadID) GlobalZ() int {
	return tid.BlockIdx.Z*tid.BlockDim.Z + tid.ThreadIdx.Z
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// Implement KernelFunc as Kernel
func (fn KernelFunc) Execute(tid ThreadID, args ...interface{}) {
	fn(tid, args...)
}
