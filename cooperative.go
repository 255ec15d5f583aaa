package puzzles

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Cooperative execution: every thread of a block runs as its own goroutine
// so threads can meet at a barrier mid-kernel. This is the execution model
// behind all shared-memory puzzles — stage into a Tile, Barrier, consume.

// Thread is the per-thread view handed to cooperative kernels. It embeds
// the plain ThreadID indexing and adds the block-scoped facilities: the
// barrier and shared-tile allocation.
type Thread struct {
	ThreadID
	block     *blockState
	sharedIdx int
}

// Barrier suspends the calling thread until every thread of its block has
// arrived. All writes issued before the barrier are visible to all reads
// issued after it by every thread in the block. The barrier is reusable;
// every thread of the block must reach every barrier the kernel executes.
func (t *Thread) Barrier() {
	t.block.barrier.await()
}

// Shared returns a block-scoped Tile of n float32 slots. The call is
// collective: all threads of a block must perform the same sequence of
// Shared calls with the same sizes, and each call position yields the same
// backing storage for every thread. Slots are zero-initialized.
func (t *Thread) Shared(n int) Tile {
	idx := t.sharedIdx
	t.sharedIdx++
	return t.block.sharedTile(idx, n)
}

// Tile is a block-scoped shared scratch buffer with a fixed capacity.
// Lifetime is one kernel launch; all threads of the block may read and
// write it, under the discipline that no slot is read before its writer
// has passed a barrier. At and Set are bounds-checked: an out-of-range
// slot faults the launch exactly like an out-of-range device buffer.
type Tile struct {
	data []float32
}

// Len returns the tile capacity in slots.
func (t Tile) Len() int {
	return len(t.data)
}

// At reads slot i.
func (t Tile) At(i int) float32 {
	return t.data[i]
}

// Set writes slot i.
func (t Tile) Set(i int, v float32) {
	t.data[i] = v
}

// Fill sets every slot to v.
func (t Tile) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Load atomically reads slot i. Together with Store this exposes the
// read-modify-write decomposition the race-condition puzzle is about: the
// load and the store are each atomic, their combination is not.
func (t Tile) Load(i int) float32 {
	return math.Float32frombits(atomic.LoadUint32((*uint32)(unsafe.Pointer(&t.data[i]))))
}

// Store atomically writes slot i.
func (t Tile) Store(i int, v float32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&t.data[i])), math.Float32bits(v))
}

// errBlockAborted is the panic payload used to unwind sibling threads once
// a block has faulted. It never escapes the launch machinery.
var errBlockAborted = errors.New("block aborted")

// blockState holds the per-block runtime: the barrier, the shared-memory
// arena, and the first fault raised by any thread of the block.
type blockState struct {
	barrier *barrier

	sharedMu   sync.Mutex
	shared     []Tile
	sharedFree int

	failOnce sync.Once
	err      error
}

func newBlockState(parties int) *blockState {
	return &blockState{
		barrier:    newBarrier(parties),
		sharedFree: MaxSharedPerBlock,
	}
}

// sharedTile returns the tile for allocation position idx, creating it on
// first request. The mutex both serializes creation and publishes the
// slice header to the other threads of the block.
func (b *blockState) sharedTile(idx, n int) Tile {
	if n < 0 {
		panic(fmt.Sprintf("shared tile size must be non-negative, got %d", n))
	}
	b.sharedMu.Lock()
	defer b.sharedMu.Unlock()

	if idx < len(b.shared) {
		tile := b.shared[idx]
		if tile.Len() != n {
			// Threads disagree on the allocation sequence; the kernel has
			// divergent Shared calls.
			panic(fmt.Sprintf("divergent shared allocation %d: %d slots vs %d", idx, tile.Len(), n))
		}
		return tile
	}
	if n > b.sharedFree {
		panic(fmt.Sprintf("shared memory exhausted: %d slots requested, %d available", n, b.sharedFree))
	}
	b.sharedFree -= n
	tile := Tile{data: make([]float32, n)}
	b.shared = append(b.shared, tile)
	return tile
}

// abort records the block's first fault and releases any threads parked at
// the barrier so the block unwinds instead of deadlocking.
func (b *blockState) abort(err error) {
	b.failOnce.Do(func() {
		b.err = err
	})
	b.barrier.poison()
}

// recoverThread converts a thread panic into a block fault. Sibling
// threads unwound by a poisoned barrier pass through quietly.
func (b *blockState) recoverThread() {
	if r := recover(); r != nil {
		if r == errBlockAborted {
			return
		}
		b.abort(deviceFault("LaunchCooperative", r))
	}
}

// barrier is a reusable generation-counted barrier for the threads of one
// block. Arrival is counted under the mutex; the phase counter lets the
// same barrier serve every synchronization point of a kernel. A poisoned
// barrier unwinds every present and future arrival.
type barrier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	parties  int
	count    int
	phase    uint64
	poisoned bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) await() {
	b.mu.Lock()
	if b.poisoned {
		b.mu.Unlock()
		panic(errBlockAborted)
	}
	phase := b.phase
	b.count++
	if b.count == b.parties {
		b.count = 0
		b.phase++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for phase == b.phase && !b.poisoned {
		b.cond.Wait()
	}
	poisoned := b.poisoned
	b.mu.Unlock()
	if poisoned {
		panic(errBlockAborted)
	}
}

func (b *barrier) poison() {
	b.mu.Lock()
	b.poisoned = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// LaunchCooperativeStream executes a cooperative kernel on a specific
// stream. Blocks are scheduled onto a worker pool and run independently;
// within a block, one goroutine per thread.
func (ctx *Context) LaunchCooperativeStream(fn BlockKernelFunc, grid, block Dim3, stream *Stream, args ...interface{}) error {
	if err := checkLaunchConfig(grid, block); err != nil {
		return err
	}

	gridSize := grid.Size()
	if gridSize == 0 {
		stream.Submit(func() {})
		return nil
	}

	stream.Submit(func() {
		workers := runtime.NumCPU()
		if gridSize < workers {
			workers = gridSize
		}
		pool := NewWorkerPool(workers)

		for blockID := 0; blockID < gridSize; blockID++ {
			blockIdx := linearTo3D(blockID, grid)
			pool.Submit(func() {
				if err := runCooperativeBlock(fn, blockIdx, grid, block, args); err != nil {
					stream.record(err)
				}
			})
		}

		pool.Close()
	})

	return nil
}

// runCooperativeBlock runs one block to completion: a goroutine per
// thread, a shared barrier, and a shared-tile arena. Returns the block's
// first fault, if any.
func runCooperativeBlock(fn BlockKernelFunc, blockIdx Dim3, grid, block Dim3, args []interface{}) error {
	blockSize := block.Size()
	bs := newBlockState(blockSize)

	var wg sync.WaitGroup
	wg.Add(blockSize)

	for threadID := 0; threadID < blockSize; threadID++ {
		t := &Thread{
			ThreadID: ThreadID{
				BlockIdx:  blockIdx,
				ThreadIdx: linearTo3D(threadID, block),
				BlockDim:  block,
				GridDim:   grid,
			},
			block: bs,
		}
		go func(t *Thread) {
			defer wg.Done()
			defer bs.recoverThread()
			fn(t, args...)
		}(t)
	}

	wg.Wait()
	return bs.err
}
