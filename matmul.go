package puzzles

import (
	"fmt"
)

// Shared-memory tiled matrix multiply. Each block owns a tileSize×tileSize
// patch of the output and marches across the inner dimension one tile step
// at a time, staging square tiles of both operands before accumulating.

// MatMulTiled computes out = a × b for row-major a (m×k), b (k×n) and out
// (m×n) with an explicit tile edge length.
//
// Per step, thread (y, x) stages one element of the A tile and one of the
// B tile, with out-of-range slots staged as 0 so ragged edges contribute
// nothing. A barrier publishes the tiles, each thread accumulates its
// tileSize products in increasing k, and a second barrier protects the
// tiles from the next step's staging. Accumulation therefore runs over k
// in the same order as the sequential reference.
func MatMulTiled(out, a, b DevicePtr, m, k, n, tileSize int) error {
	if m < 0 || k < 0 || n < 0 {
		return NewInvalidArgError("MatMul", "matrix dimensions must be non-negative")
	}
	if tileSize < 1 || tileSize*tileSize > MaxThreadsPerBlock {
		return NewConfigError("MatMul",
			fmt.Sprintf("tile size %d outside [1, %d]", tileSize, 32))
	}
	if m == 0 || n == 0 {
		return nil
	}

	aData := a.Float32()
	bData := b.Float32()
	output := out.Float32()

	kernel := func(t *Thread, args ...interface{}) {
		localRow := t.ThreadIdx.Y
		localCol := t.ThreadIdx.X
		globalRow := t.BlockIdx.Y*tileSize + localRow
		globalCol := t.BlockIdx.X*tileSize + localCol

		aTile := t.Shared(tileSize * tileSize)
		bTile := t.Shared(tileSize * tileSize)

		var acc float32
		steps := (k + tileSize - 1) / tileSize
		for step := 0; step < steps; step++ {
			aCol := step*tileSize + localCol
			bRow := step*tileSize + localRow

			if globalRow < m && aCol < k {
				aTile.Set(localRow*tileSize+localCol, aData[globalRow*k+aCol])
			} else {
				aTile.Set(localRow*tileSize+localCol, 0)
			}
			if bRow < k && globalCol < n {
				bTile.Set(localRow*tileSize+localCol, bData[bRow*n+globalCol])
			} else {
				bTile.Set(localRow*tileSize+localCol, 0)
			}
			t.Barrier()

			for kk := 0; kk < tileSize; kk++ {
				acc += aTile.At(localRow*tileSize+kk) * bTile.At(kk*tileSize+localCol)
			}
			t.Barrier()
		}

		if globalRow < m && globalCol < n {
			output[globalRow*n+globalCol] = acc
		}
	}

	grid := Dim3{
		X: (n + tileSize - 1) / tileSize,
		Y: (m + tileSize - 1) / tileSize,
		Z: 1,
	}
	block := Dim3{X: tileSize, Y: tileSize, Z: 1}
	return LaunchCooperative(kernel, grid, block)
}

// MatMul multiplies with the default 16×16 tile.
func MatMul(out, a, b DevicePtr, m, k, n int) error {
	return MatMulTiled(out, a, b, m, k, n, 16)
}
