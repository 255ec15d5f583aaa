package puzzles

import (
	"fmt"
	"runtime"
	"sync"
)

// launchInternal implements the flat kernel execution path: threads within
// a block run sequentially inside one worker goroutine. Kernels launched
// this way cannot barrier; cooperative kernels go through
// launchCooperativeInternal instead.
func (ctx *Context) launchInternal(
	kernelFunc func(ThreadID, ...interface{}),
	grid, block Dim3,
	stream *Stream,
	args ...interface{},
) error {
	if err := checkLaunchConfig(grid, block); err != nil {
		return err
	}

	gridSize := grid.Size()
	blockSize := block.Size()

	// An empty grid still submits a task to maintain stream ordering.
	if gridSize == 0 {
		stream.Submit(func() {})
		return nil
	}

	numWorkers := runtime.NumCPU()
	if gridSize < numWorkers {
		numWorkers = gridSize
	}

	// Cache-aware scheduling: each worker processes a contiguous run of
	// blocks to maximize cache reuse.
	blocksPerWorker := (gridSize + numWorkers - 1) / numWorkers

	stream.Submit(func() {
		var wg sync.WaitGroup
		wg.Add(numWorkers)

		for workerID := 0; workerID < numWorkers; workerID++ {
			startBlock := workerID * blocksPerWorker
			endBlock := startBlock + blocksPerWorker
			if endBlock > gridSize {
				endBlock = gridSize
			}

			go func(startBlock, endBlock int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						stream.record(deviceFault("Launch", r))
					}
				}()

				for blockID := startBlock; blockID < endBlock; blockID++ {
					blockIdx := linearTo3D(blockID, grid)

					for threadID := 0; threadID < blockSize; threadID++ {
						threadIdx := linearTo3D(threadID, block)

						tid := ThreadID{
							BlockIdx:  blockIdx,
							ThreadIdx: threadIdx,
							BlockDim:  block,
							GridDim:   grid,
						}

						kernelFunc(tid, args...)
					}
				}
			}(startBlock, endBlock)
		}

		wg.Wait()
	})

	return nil
}

// checkLaunchConfig validates grid and block shapes before any work is
// queued. Violations are host-detectable and fail the launch call itself.
func checkLaunchConfig(grid, block Dim3) error {
	if grid.X < 0 || grid.Y < 0 || grid.Z < 0 {
		return NewConfigError("Launch", fmt.Sprintf("negative grid dimension: %+v", grid))
	}
	if block.X < 1 || block.Y < 1 || block.Z < 1 {
		return NewConfigError("Launch", fmt.Sprintf("block dimensions must be at least 1: %+v", block))
	}
	if block.Size() > MaxThreadsPerBlock {
		return NewConfigError("Launch",
			fmt.Sprintf("block size %d exceeds MaxThreadsPerBlock (%d)", block.Size(), MaxThreadsPerBlock))
	}
	return nil
}

// deviceFault converts a recovered kernel panic into an execution error.
// Out-of-range indexing on a device buffer or tile is the moral equivalent
// of an illegal address fault: the launch is aborted and the error surfaces
// at Synchronize.
func deviceFault(op string, r interface{}) error {
	return NewExecutionError(op, fmt.Sprintf("device fault: %v", r), nil)
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}

// WorkerPool manages a pool of worker goroutines for kernel execution
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*2),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit adds a task to the pool
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Close shuts down the worker pool after all submitted tasks finish
func (wp *WorkerPool) Close() {
	close(wp.tasks)
	wp.wg.Wait()
}

// Helper functions for common patterns

// ForEach applies a function to each element in parallel
func ForEach(data DevicePtr, size int, fn func(idx int, val *float32)) error {
	grid := Dim3{X: (size + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < size {
			slice := data.Float32()
			fn(idx, &slice[idx])
		}
	})

	return Launch(kernel, grid, block)
}

// Map applies a transformation function to create a new array
func Map(input, output DevicePtr, size int, fn func(float32) float32) error {
	grid := Dim3{X: (size + DefaultBlockSize - 1) / DefaultBlockSize, Y: 1, Z: 1}
	block := Dim3{X: DefaultBlockSize, Y: 1, Z: 1}

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		idx := tid.Global()
		if idx < size {
			in := input.Float32()
			out := output.Float32()
			out[idx] = fn(in[idx])
		}
	})

	return Launch(kernel, grid, block)
}
