package puzzles

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of memory transfer.
// In the unified memory model these are provided for CUDA compatibility
// and are treated identically since all memory is CPU-accessible.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

// MemoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously allocated blocks to reduce
// allocation overhead and memory fragmentation.
type MemoryPool struct {
	mu         sync.Mutex
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates a new memory pool for efficient memory management.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
	}
}

// Malloc allocates device memory of the specified size in bytes.
// See the package-level Malloc for the zero-size contract.
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
// Freeing the zero-value DevicePtr (including a zero-size allocation) is a
// no-op. The memory may be retained in the pool for future allocations.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Memcpy copies memory between host and device.
// Supports various combinations of DevicePtr and Go slices.
//
// Parameters:
//   - dst: Destination (DevicePtr or Go slice)
//   - src: Source (DevicePtr or Go slice)
//   - size: Number of bytes to copy
//   - kind: Transfer direction (for CUDA compatibility)
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	var dstPtr, srcPtr unsafe.Pointer

	switch d := dst.(type) {
	case DevicePtr:
		dstPtr = d.ptr
	case unsafe.Pointer:
		dstPtr = d
	case []byte:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	case []float32:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	case []float64:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	case []int32:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	default:
		return NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported dst type: %T", dst))
	}

	switch s := src.(type) {
	case DevicePtr:
		srcPtr = s.ptr
	case unsafe.Pointer:
		srcPtr = s
	case []byte:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	case []float32:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	case []float64:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	case []int32:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	default:
		return NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported src type: %T", src))
	}

	if dstPtr != nil && srcPtr != nil && size > 0 {
		copy((*[1 << 30]byte)(dstPtr)[:size:size], (*[1 << 30]byte)(srcPtr)[:size:size])
	}

	return nil
}

// Fill sets the first count float32 elements of dst to value.
// This is the host-visible buffer fill of the allocator interface; it is
// synchronous, like Memcpy.
func Fill(dst DevicePtr, value float32, count int) error {
	if count < 0 {
		return NewInvalidArgError("Fill", "count must be non-negative")
	}
	slice := dst.Float32()
	if count > len(slice) {
		return NewInvalidArgError("Fill",
			fmt.Sprintf("count %d exceeds buffer capacity %d", count, len(slice)))
	}
	for i := 0; i < count; i++ {
		slice[i] = value
	}
	return nil
}

// MemoryPool methods

// Allocate allocates memory from the pool.
//
// A size of zero succeeds and yields a pointer with no storage behind it;
// kernels must never index into such a buffer (doing so faults the
// launch). This mirrors device allocators that accept zero-count requests.
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size < 0 {
		return DevicePtr{}, ErrInvalidSize
	}
	if size == 0 {
		return DevicePtr{}, nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Round up to alignment
	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	// Try to reuse from free list
	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true

			mp.totalAlloc += int64(alloc.size)
			if mp.totalAlloc > mp.peakAlloc {
				mp.peakAlloc = mp.totalAlloc
			}

			return DevicePtr{
				ptr:  alloc.ptr,
				size: size,
			}, nil
		}
	}

	// Allocate new memory. The allocation map keeps the backing array
	// reachable for the GC for as long as the pool tracks it.
	buf := make([]byte, alignedSize)
	ptr := unsafe.Pointer(&buf[0])

	alloc := &allocation{
		ptr:  ptr,
		size: alignedSize,
		used: true,
	}

	mp.allocated[uintptr(ptr)] = alloc

	mp.totalAlloc += int64(alignedSize)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{
		ptr:  ptr,
		size: size,
	}, nil
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	allocPtr := uintptr(ptr.ptr)
	alloc, ok := mp.allocated[allocPtr]
	if !ok {
		return NewMemoryError("Free", "pointer not found in allocation pool", nil)
	}

	if !alloc.used {
		return ErrDoubleFree
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)

	return nil
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// DevicePtr methods for convenience

// Float32 returns a float32 slice view of the device memory.
// The slice can be used directly for reading and writing data.
// A zero-size allocation yields an empty slice: any indexing into it
// faults, which is exactly the hazard the zero-size puzzle demonstrates.
func (d DevicePtr) Float32() []float32 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 28]float32)(d.ptr)[: d.size/4 : d.size/4]
}

// Float64 returns a float64 slice view of the device memory.
func (d DevicePtr) Float64() []float64 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 27]float64)(d.ptr)[: d.size/8 : d.size/8]
}

// Int32 returns an int32 slice view of the device memory.
func (d DevicePtr) Int32() []int32 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 28]int32)(d.ptr)[: d.size/4 : d.size/4]
}

// Byte returns a byte slice view of the device memory.
// The slice covers the entire allocated memory region.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 30]byte)(d.ptr)[:d.size:d.size]
}

// Offset returns a new DevicePtr offset by the given number of bytes.
// Useful for accessing sub-regions of allocated memory.
// The returned DevicePtr shares the same underlying memory.
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Pointer(uintptr(d.ptr) + uintptr(bytes)),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Size returns the size in bytes of the memory region
func (d DevicePtr) Size() int {
	return d.size
}
