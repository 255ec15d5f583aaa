package puzzles

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// Test basic memory allocation and deallocation
func TestMemoryAllocation(t *testing.T) {
	sizes := []int{100, 1000, 10000, 1000000}

	for _, size := range sizes {
		ptr, err := Malloc(size * 4)
		if err != nil {
			t.Fatalf("Failed to allocate %d bytes: %v", size*4, err)
		}

		// Verify we can access the memory
		slice := ptr.Float32()
		if len(slice) != size {
			t.Errorf("Expected slice length %d, got %d", size, len(slice))
		}

		// Write and read test
		for i := 0; i < min(100, size); i++ {
			slice[i] = float32(i)
		}

		for i := 0; i < min(100, size); i++ {
			if slice[i] != float32(i) {
				t.Errorf("Memory corruption at index %d", i)
			}
		}

		err = Free(ptr)
		if err != nil {
			t.Fatalf("Failed to free memory: %v", err)
		}
	}
}

// Zero-count allocation succeeds but yields nothing to dereference
func TestZeroSizeAllocation(t *testing.T) {
	ptr, err := Malloc(0)
	if err != nil {
		t.Fatalf("Malloc(0) should succeed: %v", err)
	}
	if ptr.Size() != 0 {
		t.Errorf("Expected size 0, got %d", ptr.Size())
	}
	if len(ptr.Float32()) != 0 {
		t.Errorf("Expected empty view, got %d elements", len(ptr.Float32()))
	}
	if err := Free(ptr); err != nil {
		t.Errorf("Free of zero-size pointer should be a no-op: %v", err)
	}

	_, err = Malloc(-1)
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Malloc(-1) = %v, want ErrInvalidSize", err)
	}
}

// Test memory copy operations
func TestMemcpy(t *testing.T) {
	const N = 1000

	// Create host data
	h_src := make([]float32, N)
	h_dst := make([]float32, N)
	for i := 0; i < N; i++ {
		h_src[i] = rand.Float32()
	}

	// Allocate device memory
	d_src, _ := Malloc(N * 4)
	d_dst, _ := Malloc(N * 4)
	defer Free(d_src)
	defer Free(d_dst)

	// Test H2D copy
	err := Memcpy(d_src, h_src, N*4, MemcpyHostToDevice)
	if err != nil {
		t.Fatalf("H2D copy failed: %v", err)
	}

	// Test D2D copy
	err = Memcpy(d_dst, d_src, N*4, MemcpyDeviceToDevice)
	if err != nil {
		t.Fatalf("D2D copy failed: %v", err)
	}

	// Test D2H copy
	err = Memcpy(h_dst, d_dst, N*4, MemcpyDeviceToHost)
	if err != nil {
		t.Fatalf("D2H copy failed: %v", err)
	}

	// Verify data
	for i := 0; i < N; i++ {
		if math.Abs(float64(h_src[i]-h_dst[i])) > 1e-6 {
			t.Errorf("Data mismatch at index %d: %f vs %f", i, h_src[i], h_dst[i])
		}
	}

	// Unsupported types are rejected
	if err := Memcpy(d_dst, "not a buffer", 4, MemcpyHostToDevice); !IsInvalidArgError(err) {
		t.Errorf("Memcpy with bad src = %v, want invalid argument error", err)
	}
}

// Test buffer fill
func TestFill(t *testing.T) {
	const N = 64

	d_data := MallocOrFail(t, N*4)
	defer Free(d_data)

	if err := Fill(d_data, 2.5, N); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	for i, v := range d_data.Float32() {
		if v != 2.5 {
			t.Fatalf("Fill missed index %d: got %f", i, v)
		}
	}

	if err := Fill(d_data, 0, N+1); !IsInvalidArgError(err) {
		t.Errorf("Fill past capacity = %v, want invalid argument error", err)
	}
	if err := Fill(d_data, 0, -1); !IsInvalidArgError(err) {
		t.Errorf("Fill with negative count = %v, want invalid argument error", err)
	}
}

// Test basic kernel launch
func TestKernelLaunch(t *testing.T) {
	const N = 10000

	// Allocate memory
	d_data, _ := Malloc(N * 4)
	defer Free(d_data)

	// Initialize to zero
	slice := d_data.Float32()
	for i := 0; i < N; i++ {
		slice[i] = 0
	}

	// Launch kernel to set values
	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < N {
			slice[idx] = float32(idx)
		}
	})

	err := Launch(kernel, Dim3{X: (N + 255) / 256, Y: 1, Z: 1}, Dim3{X: 256, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("Kernel launch failed: %v", err)
	}

	err = Synchronize()
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	// Verify results
	for i := 0; i < N; i++ {
		if slice[i] != float32(i) {
			t.Errorf("Incorrect value at index %d: expected %f, got %f", i, float32(i), slice[i])
		}
	}
}

// Launch configuration is validated before any work is queued
func TestLaunchConfigValidation(t *testing.T) {
	noop := KernelFunc(func(tid ThreadID, args ...interface{}) {})

	err := Launch(noop, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: 0, Y: 1, Z: 1})
	if !IsConfigError(err) {
		t.Errorf("zero block dim = %v, want configuration error", err)
	}

	err = Launch(noop, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: MaxThreadsPerBlock + 1, Y: 1, Z: 1})
	if !IsConfigError(err) {
		t.Errorf("oversized block = %v, want configuration error", err)
	}

	err = Launch(noop, Dim3{X: -1, Y: 1, Z: 1}, Dim3{X: 1, Y: 1, Z: 1})
	if !IsConfigError(err) {
		t.Errorf("negative grid dim = %v, want configuration error", err)
	}

	// Empty grid is a valid no-op launch
	err = Launch(noop, Dim3{X: 0, Y: 1, Z: 1}, Dim3{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Errorf("empty grid launch failed: %v", err)
	}
	SynchronizeOrFail(t)
}

// Test error conditions
func TestErrorHandling(t *testing.T) {
	// Test double free
	ptr, _ := Malloc(100)
	err := Free(ptr)
	if err != nil {
		t.Fatalf("First free failed: %v", err)
	}

	err = Free(ptr)
	if err == nil {
		t.Error("Double free should have failed")
	}

	// Freeing an interior pointer is rejected
	base := MallocOrFail(t, 256)
	defer Free(base)
	if err := Free(base.Offset(64)); !IsMemoryError(err) {
		t.Errorf("Free of interior pointer = %v, want memory error", err)
	}

	// Test invalid device
	err = SetDevice(1)
	if err == nil {
		t.Error("SetDevice(1) should have failed")
	}
	if err := SetDevice(0); err != nil {
		t.Errorf("SetDevice(0) failed: %v", err)
	}

	// Test device count
	count := GetDeviceCount()
	if count != 1 {
		t.Errorf("Expected 1 device, got %d", count)
	}
}

// Test memory pool statistics
func TestMemoryPoolStats(t *testing.T) {
	// Get initial stats
	allocated1, _ := defaultContext.memory.GetStats()

	// Allocate some memory
	ptrs := make([]DevicePtr, 10)
	for i := range ptrs {
		ptrs[i], _ = Malloc(1024 * 1024) // 1MB each
	}

	// Check stats increased
	allocated2, peak2 := defaultContext.memory.GetStats()
	if allocated2 <= allocated1 {
		t.Error("Allocated memory should have increased")
	}
	if peak2 < allocated2 {
		t.Error("Peak should be at least current allocation")
	}

	// Free half
	for i := 0; i < 5; i++ {
		Free(ptrs[i])
	}

	// Check allocated decreased but peak unchanged
	allocated3, peak3 := defaultContext.memory.GetStats()
	if allocated3 >= allocated2 {
		t.Error("Allocated memory should have decreased")
	}
	if peak3 != peak2 {
		t.Error("Peak should not have changed")
	}

	// Clean up
	for i := 5; i < 10; i++ {
		Free(ptrs[i])
	}
}

// Device properties reflect the host
func TestDeviceProperties(t *testing.T) {
	dev := GetDevice()
	if dev == nil {
		t.Fatal("GetDevice returned nil")
	}
	if dev.Name == "" {
		t.Error("Device name is empty")
	}
	if dev.NumCores < 1 {
		t.Errorf("NumCores = %d, want >= 1", dev.NumCores)
	}
	if dev.MaxThreads != MaxThreadsPerBlock {
		t.Errorf("MaxThreads = %d, want %d", dev.MaxThreads, MaxThreadsPerBlock)
	}
	if dev.TotalMem == 0 {
		t.Error("TotalMem is zero")
	}

	if _, err := GetDeviceProperties(0); err != nil {
		t.Errorf("GetDeviceProperties(0) failed: %v", err)
	}
	if _, err := GetDeviceProperties(1); err == nil {
		t.Error("GetDeviceProperties(1) should have failed")
	}

	if GetCPUInfo() == "" {
		t.Error("GetCPUInfo returned empty string")
	}
	if VectorWidth() < 1 {
		t.Errorf("VectorWidth = %d, want >= 1", VectorWidth())
	}
}

// Work queued on a created stream completes at stream synchronize
func TestStreams(t *testing.T) {
	const N = 4096

	d_data := MallocOrFail(t, N*4)
	defer Free(d_data)
	slice := d_data.Float32()

	stream := defaultContext.CreateStream()

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < N {
			slice[idx] = float32(idx) * 2
		}
	})

	err := defaultContext.LaunchFuncStream(kernel,
		Dim3{X: (N + 255) / 256, Y: 1, Z: 1}, Dim3{X: 256, Y: 1, Z: 1}, stream)
	if err != nil {
		t.Fatalf("Stream launch failed: %v", err)
	}

	if err := stream.Synchronize(); err != nil {
		t.Fatalf("Stream synchronize failed: %v", err)
	}

	for i := 0; i < N; i++ {
		if slice[i] != float32(i)*2 {
			t.Fatalf("Incorrect value at index %d: got %f", i, slice[i])
		}
	}
}
