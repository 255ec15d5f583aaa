package puzzles

import (
	"fmt"
	"math"
)

// Softmax computes out[i] = exp(in[i] - max(in)) / sum_k exp(in[k] - max(in))
// for i < n, in a single block of the next power of two >= n threads.
//
// The kernel runs the textbook stable form in two reduction passes: stage
// values into a max tile and tree-reduce for the block maximum, then stage
// exp(v - blockMax) of each thread's own loaded value into a second tile
// and tree-reduce for the denominator. Subtracting the maximum before
// exponentiating keeps every exponent <= 0, so large inputs cannot
// overflow; there is no unshifted path through this kernel.
//
// Out-of-range threads stage the max identity in pass one and 0 in pass
// two, leaving both reductions untouched.
func Softmax(out, in DevicePtr, n int) error {
	if n < 0 {
		return NewInvalidArgError("Softmax", "element count must be non-negative")
	}
	if n == 0 {
		return nil
	}
	blockSize := nextPow2(n)
	if blockSize > MaxThreadsPerBlock {
		return NewConfigError("Softmax",
			fmt.Sprintf("length %d needs block size %d, device maximum is %d",
				n, blockSize, MaxThreadsPerBlock))
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		tid := t.ThreadIdx.X
		inRange := tid < n

		maxBuf := t.Shared(t.BlockDim.X)
		sumBuf := t.Shared(t.BlockDim.X)

		var val float32
		if inRange {
			val = input[tid]
			maxBuf.Set(tid, val)
		} else {
			maxBuf.Set(tid, MaxOp.Identity)
		}
		blockMax := TreeReduce(t, maxBuf, MaxOp)

		var expVal float32
		if inRange {
			expVal = float32(math.Exp(float64(val - blockMax)))
			sumBuf.Set(tid, expVal)
		} else {
			sumBuf.Set(tid, 0)
		}
		blockSum := TreeReduce(t, sumBuf, SumOp)

		if inRange {
			output[tid] = expVal / blockSum
		}
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: blockSize, Y: 1, Z: 1})
}
