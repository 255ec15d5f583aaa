package puzzles

import (
	"fmt"
)

// Element-wise kernels on the flat launch path. None of these needs a
// barrier; every thread owns exactly one output slot, and every global
// access is guarded so grids larger than the data stay harmless.

// AddScalarBlocked computes out[i] = in[i] + scalar for i < n, with an
// explicit block size. The grid is sized to cover n, so the trailing block
// usually carries threads past the end of the data; the guard keeps them
// idle.
func AddScalarBlocked(out, in DevicePtr, scalar float32, n, blockSize int) error {
	if n < 0 {
		return NewInvalidArgError("AddScalar", "element count must be non-negative")
	}
	if blockSize < 1 || blockSize > MaxThreadsPerBlock {
		return NewConfigError("AddScalar",
			fmt.Sprintf("block size %d outside [1, %d]", blockSize, MaxThreadsPerBlock))
	}
	if n == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		i := tid.Global()
		if i < n {
			output[i] = input[i] + scalar
		}
	})

	gridSize := (n + blockSize - 1) / blockSize
	return Launch(kernel, Dim3{X: gridSize, Y: 1, Z: 1}, Dim3{X: blockSize, Y: 1, Z: 1})
}

// AddScalar computes out[i] = in[i] + scalar with the default block size.
func AddScalar(out, in DevicePtr, scalar float32, n int) error {
	return AddScalarBlocked(out, in, scalar, n, DefaultBlockSize)
}

// VecAdd computes out[i] = a[i] + b[i] for i < n.
func VecAdd(out, a, b DevicePtr, n int) error {
	if n < 0 {
		return NewInvalidArgError("VecAdd", "element count must be non-negative")
	}
	if n == 0 {
		return nil
	}

	aData := a.Float32()
	bData := b.Float32()
	output := out.Float32()

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		i := tid.Global()
		if i < n {
			output[i] = aData[i] + bData[i]
		}
	})

	gridSize := (n + DefaultBlockSize - 1) / DefaultBlockSize
	return Launch(kernel, Dim3{X: gridSize, Y: 1, Z: 1}, Dim3{X: DefaultBlockSize, Y: 1, Z: 1})
}

// AddScalar2D computes out[row][col] = in[row][col] + scalar over a
// rows×cols row-major matrix with 2D thread indexing. Both dimensions are
// guarded independently, so blocks may overhang on either axis.
func AddScalar2D(out, in DevicePtr, scalar float32, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return NewInvalidArgError("AddScalar2D", "matrix dimensions must be non-negative")
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		row := tid.GlobalY()
		col := tid.GlobalX()
		if row < rows && col < cols {
			output[row*cols+col] = input[row*cols+col] + scalar
		}
	})

	block := Dim3{X: 16, Y: 16, Z: 1}
	grid := Dim3{
		X: (cols + block.X - 1) / block.X,
		Y: (rows + block.Y - 1) / block.Y,
		Z: 1,
	}
	return Launch(kernel, grid, block)
}

// BroadcastAdd computes out[row][col] = colVec[row] + rowVec[col], the
// outer sum of a column vector of length rows and a row vector of length
// cols.
func BroadcastAdd(out, colVec, rowVec DevicePtr, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return NewInvalidArgError("BroadcastAdd", "matrix dimensions must be non-negative")
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	colData := colVec.Float32()
	rowData := rowVec.Float32()
	output := out.Float32()

	kernel := KernelFunc(func(tid ThreadID, args ...interface{}) {
		row := tid.GlobalY()
		col := tid.GlobalX()
		if row < rows && col < cols {
			output[row*cols+col] = colData[row] + rowData[col]
		}
	})

	block := Dim3{X: 16, Y: 16, Z: 1}
	grid := Dim3{
		X: (cols + block.X - 1) / block.X,
		Y: (rows + block.Y - 1) / block.Y,
		Z: 1,
	}
	return Launch(kernel, grid, block)
}

// AddScalarShared is AddScalarBlocked rebuilt on the cooperative path as
// the minimal stage, barrier, consume shape: each thread stages its
// element into a shared tile, the barrier publishes the tile, and each
// thread then consumes its own slot. The detour through shared memory
// buys nothing here; the point is the discipline.
func AddScalarShared(out, in DevicePtr, scalar float32, n, blockSize int) error {
	if n < 0 {
		return NewInvalidArgError("AddScalarShared", "element count must be non-negative")
	}
	if blockSize < 1 || blockSize > MaxThreadsPerBlock {
		return NewConfigError("AddScalarShared",
			fmt.Sprintf("block size %d outside [1, %d]", blockSize, MaxThreadsPerBlock))
	}
	if n == 0 {
		return nil
	}

	input := in.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		localI := t.ThreadIdx.X
		globalI := t.Global()

		tile := t.Shared(t.BlockDim.X)
		if globalI < n {
			tile.Set(localI, input[globalI])
		} else {
			tile.Set(localI, 0)
		}
		t.Barrier()

		if globalI < n {
			output[globalI] = tile.At(localI) + scalar
		}
	}

	gridSize := (n + blockSize - 1) / blockSize
	return LaunchCooperative(kernel,
		Dim3{X: gridSize, Y: 1, Z: 1},
		Dim3{X: blockSize, Y: 1, Z: 1})
}
