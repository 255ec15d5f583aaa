package puzzles

import (
	"fmt"
)

// PoolSum computes out[i] = sum of the window elements ending at i, so
// out[i] = in[i-window+1] + ... + in[i], truncated at the left edge where
// fewer than window elements precede i. A single block stages the input
// into shared memory and each thread reads back up to window slots.
//
// n is limited to one block; the staged tile is the whole input.
func PoolSum(out, in DevicePtr, n, window int) error {
	if n < 0 {
		return NewInvalidArgError("PoolSum", "element count must be non-negative")
	}
	if window < 1 {
		return NewInvalidArgError("PoolSum", "window must be at least 1")
	}
	if n > MaxThreadsPerBlock {
		return NewConfigError("PoolSum",
			fmt.Sprintf("length %d exceeds single block capacity %d", n, MaxThreadsPerBlock))
	}
	if n == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		i := t.ThreadIdx.X

		tile := t.Shared(t.BlockDim.X)
		tile.Set(i, input[i])
		t.Barrier()

		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float32
		for j := start; j <= i; j++ {
			sum += tile.At(j)
		}
		output[i] = sum
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: n, Y: 1, Z: 1})
}
