package puzzles

import (
	"fmt"
	"math"
)

// Tree reduction over shared memory, the building block behind the
// dot-product, pooling, axis-sum, and softmax kernels.

// ReduceOp is an associative, commutative combining operator together with
// its identity element. Slots of a reduction tile that hold no input value
// must be pre-filled with the identity so they cannot disturb the result.
type ReduceOp struct {
	Combine  func(a, b float32) float32
	Identity float32
}

// SumOp combines by addition. Identity is 0.
var SumOp = ReduceOp{
	Combine:  func(a, b float32) float32 { return a + b },
	Identity: 0,
}

// MaxOp combines by maximum. The identity is the most negative finite
// float32 rather than -Inf, so identity slots stay finite when a later
// stage exponentiates them.
var MaxOp = ReduceOp{
	Combine: func(a, b float32) float32 {
		if a > b {
			return a
		}
		return b
	},
	Identity: -math.MaxFloat32,
}

// TreeReduce combines a power-of-two-sized shared tile into slot 0 and
// returns the combined value. It is a collective call: every thread of the
// block must reach it, with the same tile and operator.
//
// The entry barrier publishes each thread's staged value, then log2(len)
// halving steps run with a barrier after each. Threads whose local index
// falls below the stride fold the upper half into the lower half; the
// stride starts at len/2 and halves, so no step indexes out of range. After
// the final barrier every thread may read slot 0, which TreeReduce does on
// the caller's behalf.
//
// A tile whose length is not a power of two faults the launch.
func TreeReduce(t *Thread, buf Tile, op ReduceOp) float32 {
	n := buf.Len()
	if n == 0 || n&(n-1) != 0 {
		panic(fmt.Sprintf("tree reduction requires a power-of-two tile, got length %d", n))
	}

	tid := t.ThreadIdx.X
	t.Barrier()
	for stride := n / 2; stride > 0; stride /= 2 {
		if tid < stride {
			buf.Set(tid, op.Combine(buf.At(tid), buf.At(tid+stride)))
		}
		t.Barrier()
	}
	return buf.At(0)
}

// nextPow2 returns the smallest power of two >= n, and 1 for n <= 1.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// blockReduce runs a single-block staged reduction of in[0:n] into out[0].
// Block size is the next power of two >= n; threads beyond n stage the
// operator's identity.
func blockReduce(op ReduceOp, out, in DevicePtr, n int) error {
	if n < 0 {
		return NewInvalidArgError("BlockReduce", "element count must be non-negative")
	}
	blockSize := nextPow2(n)
	if blockSize > MaxThreadsPerBlock {
		return NewConfigError("BlockReduce",
			fmt.Sprintf("length %d needs block size %d, device maximum is %d",
				n, blockSize, MaxThreadsPerBlock))
	}

	input := in.Float32()
	output := out.Float32()

	return LaunchCooperative(func(t *Thread, args ...interface{}) {
		tid := t.ThreadIdx.X
		buf := t.Shared(t.BlockDim.X)
		if tid < n {
			buf.Set(tid, input[tid])
		} else {
			buf.Set(tid, op.Identity)
		}
		result := TreeReduce(t, buf, op)
		if tid == 0 {
			output[0] = result
		}
	}, Dim3{X: 1, Y: 1, Z: 1}, Dim3{X: blockSize, Y: 1, Z: 1})
}

// BlockSum computes out[0] = sum(in[0:n]) with a single-block tree
// reduction. n may be any value up to MaxThreadsPerBlock, including
// non-powers of two; n == 0 yields 0.
func BlockSum(out, in DevicePtr, n int) error {
	return blockReduce(SumOp, out, in, n)
}

// BlockMax computes out[0] = max(in[0:n]) with a single-block tree
// reduction. n == 0 yields the max identity, the most negative finite
// float32.
func BlockMax(out, in DevicePtr, n int) error {
	return blockReduce(MaxOp, out, in, n)
}

// AxisSum reduces each row of a rows×cols row-major matrix into
// out[row]. One block per row, indexed by BlockIdx.Y; each block stages
// its row and tree-reduces it.
func AxisSum(out, in DevicePtr, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return NewInvalidArgError("AxisSum", "matrix dimensions must be non-negative")
	}
	if rows == 0 {
		return nil
	}
	blockSize := nextPow2(cols)
	if blockSize > MaxThreadsPerBlock {
		return NewConfigError("AxisSum",
			fmt.Sprintf("row length %d needs block size %d, device maximum is %d",
				cols, blockSize, MaxThreadsPerBlock))
	}

	input := in.Float32()
	output := out.Float32()

	return LaunchCooperative(func(t *Thread, args ...interface{}) {
		row := t.BlockIdx.Y
		tid := t.ThreadIdx.X
		buf := t.Shared(t.BlockDim.X)
		if tid < cols {
			buf.Set(tid, input[row*cols+tid])
		} else {
			buf.Set(tid, SumOp.Identity)
		}
		sum := TreeReduce(t, buf, SumOp)
		if tid == 0 {
			output[row] = sum
		}
	}, Dim3{X: 1, Y: rows, Z: 1}, Dim3{X: blockSize, Y: 1, Z: 1})
}
