package puzzles

import (
	"fmt"
)

// PrefixSum computes the inclusive scan out[i] = in[0] + ... + in[i] in a
// single block using the Hillis-Steele pattern: log2(blockSize) rounds in
// which each thread adds the tile value offset slots below its own, with
// the offset doubling each round.
//
// Each round captures the lower value into a register, passes a barrier,
// then writes the sum and passes another. Reading and writing the tile in
// the same phase would race with the neighbor that is mid-update.
//
// The scan's addition order differs from the sequential left-to-right
// order, so float results can differ from the sequential scan in the last
// bits; integer-valued inputs agree exactly.
func PrefixSum(out, in DevicePtr, n int) error {
	if n < 0 {
		return NewInvalidArgError("PrefixSum", "element count must be non-negative")
	}
	blockSize := nextPow2(n)
	if blockSize > MaxThreadsPerBlock {
		return NewConfigError("PrefixSum",
			fmt.Sprintf("length %d needs block size %d, device maximum is %d",
				n, blockSize, MaxThreadsPerBlock))
	}
	if n == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		i := t.ThreadIdx.X

		tile := t.Shared(t.BlockDim.X)
		if i < n {
			tile.Set(i, input[i])
		} else {
			tile.Set(i, 0)
		}
		t.Barrier()

		for offset := 1; offset < t.BlockDim.X; offset *= 2 {
			var carry float32
			active := i >= offset && i < n
			if active {
				carry = tile.At(i - offset)
			}
			t.Barrier()
			if active {
				tile.Set(i, tile.At(i)+carry)
			}
			t.Barrier()
		}

		if i < n {
			output[i] = tile.At(i)
		}
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: blockSize, Y: 1, Z: 1})
}
