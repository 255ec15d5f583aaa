// Copyright ©2025 The GPU Puzzles Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package puzzles is a collection of GPU-programming exercises that run on a
// CUDA-shaped, CPU-backed execution layer.
//
// Each puzzle pairs a kernel with a sequential host oracle and a test that
// compares the two. The kernels demonstrate the staged shared-memory pattern
// used by real GPU code: stage data into a block-scoped tile, synchronize at
// a barrier, then combine — tree reductions, halo-padded convolution windows,
// two-pass numerically stable softmax, and a deliberate data race next to
// its fix.
//
// The execution layer mirrors the CUDA runtime surface:
//
//	d_in, _ := puzzles.Malloc(n * 4)
//	defer puzzles.Free(d_in)
//	puzzles.Memcpy(d_in, h_in, n*4, puzzles.MemcpyHostToDevice)
//
//	grid := puzzles.Dim3{X: (n + 255) / 256, Y: 1, Z: 1}
//	block := puzzles.Dim3{X: 256, Y: 1, Z: 1}
//	puzzles.LaunchFunc(myKernel, grid, block)
//	err := puzzles.Synchronize()
//
// Kernels that need intra-block synchronization use LaunchCooperative, which
// runs every thread of a block as its own goroutine so threads can meet at
// Thread.Barrier and share a block-scoped Tile:
//
//	puzzles.LaunchCooperative(func(t *puzzles.Thread, args ...interface{}) {
//		tile := t.Shared(t.BlockDim.X)
//		tile.Set(t.ThreadIdx.X, load(t))
//		t.Barrier()
//		// every tile slot is now visible to every thread in the block
//	}, grid, block)
//
// Blocks are mutually unsynchronized; there is no cross-block barrier.
// Device-side faults (out-of-range buffer access, dereferencing a zero-size
// allocation) abort the launch and surface as errors from Synchronize.
package puzzles
