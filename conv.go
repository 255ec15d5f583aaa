package puzzles

import (
	"fmt"
)

// 1-D convolution with a block-boundary halo. Each block stages its slice
// of the input plus window-1 trailing elements into shared memory so
// windows that straddle the block edge never touch global memory twice.

// Conv1DBlocked computes out[i] = sum_{j<window} in[i+j] * filt[j] for
// every i < n, truncating terms where i+j >= n, with an explicit block
// size so callers can force the domain to span several blocks.
//
// Each block's tile holds blockSize+window-1 elements: every thread loads
// its own slot, then the first window-1 threads load the halo slots past
// the block's range. Out-of-range loads stage 0, the sum identity. The
// filter is staged once per block into a window-sized tile. A barrier
// separates staging from the accumulation reads, and accumulation runs in
// increasing j so the result is bit-identical to the sequential reference.
//
// blockSize must be at least window: the first window threads stage the
// filter, and the first window-1 also stage one halo slot each.
func Conv1DBlocked(out, in, filt DevicePtr, n, window, blockSize int) error {
	if n < 0 {
		return NewInvalidArgError("Conv1D", "element count must be non-negative")
	}
	if window < 1 {
		return NewInvalidArgError("Conv1D", "window must be at least 1")
	}
	if blockSize < 1 || blockSize > MaxThreadsPerBlock {
		return NewConfigError("Conv1D",
			fmt.Sprintf("block size %d outside [1, %d]", blockSize, MaxThreadsPerBlock))
	}
	if blockSize < window {
		return NewConfigError("Conv1D",
			fmt.Sprintf("block size %d cannot stage a window-%d filter and halo", blockSize, window))
	}
	if n == 0 {
		return nil
	}

	input := in.Float32()
	filter := filt.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		localI := t.ThreadIdx.X
		globalI := t.Global()

		tile := t.Shared(blockSize + window - 1)
		coeff := t.Shared(window)

		if globalI < n {
			tile.Set(localI, input[globalI])
		} else {
			tile.Set(localI, 0)
		}
		if localI < window-1 {
			halo := globalI + blockSize
			if halo < n {
				tile.Set(blockSize+localI, input[halo])
			} else {
				tile.Set(blockSize+localI, 0)
			}
		}
		if localI < window {
			coeff.Set(localI, filter[localI])
		}
		t.Barrier()

		if globalI < n {
			var sum float32
			for j := 0; j < window; j++ {
				if globalI+j < n {
					sum += tile.At(localI+j) * coeff.At(j)
				}
			}
			output[globalI] = sum
		}
	}

	gridSize := (n + blockSize - 1) / blockSize
	return LaunchCooperative(kernel,
		Dim3{X: gridSize, Y: 1, Z: 1},
		Dim3{X: blockSize, Y: 1, Z: 1})
}

// Conv1D runs the halo convolution with the default block size.
func Conv1D(out, in, filt DevicePtr, n, window int) error {
	return Conv1DBlocked(out, in, filt, n, window, DefaultBlockSize)
}
