package puzzles

import (
	"fmt"
)

// Dot computes out[0] = sum_i a[i] * b[i] over n elements in a single
// block: each thread stages its product into a power-of-two tile and the
// tree reduction folds the tile into one scalar. Threads past n stage 0.
func Dot(out, a, b DevicePtr, n int) error {
	if n < 0 {
		return NewInvalidArgError("Dot", "element count must be non-negative")
	}
	blockSize := nextPow2(n)
	if blockSize > MaxThreadsPerBlock {
		return NewConfigError("Dot",
			fmt.Sprintf("length %d needs block size %d, device maximum is %d",
				n, blockSize, MaxThreadsPerBlock))
	}

	aData := a.Float32()
	bData := b.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		tid := t.ThreadIdx.X

		products := t.Shared(t.BlockDim.X)
		if tid < n {
			products.Set(tid, aData[tid]*bData[tid])
		} else {
			products.Set(tid, 0)
		}
		sum := TreeReduce(t, products, SumOp)
		if tid == 0 {
			output[0] = sum
		}
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: blockSize, Y: 1, Z: 1})
}
