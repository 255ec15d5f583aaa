package puzzles

import (
	"fmt"
)

// A teaching pair over one problem: sum a rows×cols tile into a single
// shared scalar, then write that scalar to every in-range output position.
// The two kernels are deliberately separate functions so tests can target
// each variant on its own.

func checkSharedSumArgs(op string, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return NewInvalidArgError(op, "tile dimensions must be non-negative")
	}
	if rows*cols > MaxThreadsPerBlock {
		return NewConfigError(op,
			fmt.Sprintf("tile of %d elements exceeds single block capacity %d",
				rows*cols, MaxThreadsPerBlock))
	}
	return nil
}

// SharedSumRacy is the broken variant: every in-range thread performs a
// read-modify-write on the shared scalar with no exclusion. The individual
// loads and stores are atomic, but the composition is not, so concurrent
// threads read the same old value and overwrite each other's additions.
// The result is nondeterministic and typically undercounts.
//
// Keep it for what it teaches; use SharedSumSafe for the correct answer.
func SharedSumRacy(out, in DevicePtr, rows, cols int) error {
	if err := checkSharedSumArgs("SharedSumRacy", rows, cols); err != nil {
		return err
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		row := t.ThreadIdx.Y
		col := t.ThreadIdx.X
		total := t.Shared(1)

		if row < rows && col < cols {
			cur := total.Load(0)
			total.Store(0, cur+input[row*cols+col])
		}
		t.Barrier()

		if row < rows && col < cols {
			output[row*cols+col] = total.Load(0)
		}
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: cols, Y: rows, Z: 1})
}

// SharedSumSafe is the fixed variant: one designated thread accumulates
// the whole tile into a private value and performs the only write to the
// shared scalar; the barrier then publishes it to every reader. The result
// equals the exact sequential sum on every run.
func SharedSumSafe(out, in DevicePtr, rows, cols int) error {
	if err := checkSharedSumArgs("SharedSumSafe", rows, cols); err != nil {
		return err
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		row := t.ThreadIdx.Y
		col := t.ThreadIdx.X
		total := t.Shared(1)

		if row == 0 && col == 0 {
			var sum float32
			for i := 0; i < rows*cols; i++ {
				sum += input[i]
			}
			total.Set(0, sum)
		}
		t.Barrier()

		if row < rows && col < cols {
			output[row*cols+col] = total.At(0)
		}
	}

	return LaunchCooperative(kernel,
		Dim3{X: 1, Y: 1, Z: 1},
		Dim3{X: cols, Y: rows, Z: 1})
}
