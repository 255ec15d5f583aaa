// Package puzzles reference implementations for verification
package puzzles

import (
	"math"
)

// Reference contains simple, sequential implementations of every kernel.
// These are the oracles: device results are validated against them, never
// against other device results.
type Reference struct{}

// Sum computes the sum of all elements
func (r Reference) Sum(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v
	}
	return sum
}

// Max finds the maximum element. The empty slice yields the reduction
// identity, the most negative finite float32.
func (r Reference) Max(x []float32) float32 {
	max := float32(-math.MaxFloat32)
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	return max
}

// Dot computes the dot product of x and y
func (r Reference) Dot(x, y []float32) float32 {
	var sum float32
	for i := range x {
		sum += x[i] * y[i]
	}
	return sum
}

// AddScalar performs out[i] = x[i] + scalar
func (r Reference) AddScalar(x []float32, scalar float32, out []float32) {
	for i := range x {
		out[i] = x[i] + scalar
	}
}

// Add performs element-wise addition: out = a + b
func (r Reference) Add(a, b, out []float32) {
	for i := range a {
		out[i] = a[i] + b[i]
	}
}

// BroadcastAdd computes the outer sum out[i][j] = col[i] + row[j]
func (r Reference) BroadcastAdd(col, row, out []float32, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = col[i] + row[j]
		}
	}
}

// Conv1D computes out[i] = sum_{j<window} in[i+j] * filt[j], dropping
// terms where i+j runs past the end of in. Terms accumulate in increasing
// j; the device kernel follows the same order so integer-valued inputs
// compare bit-for-bit.
func (r Reference) Conv1D(in, filt, out []float32, n, window int) {
	for i := 0; i < n; i++ {
		var sum float32
		for j := 0; j < window; j++ {
			if i+j < n {
				sum += in[i+j] * filt[j]
			}
		}
		out[i] = sum
	}
}

// PoolSum computes out[i] = in[i-window+1] + ... + in[i], truncated at the
// left edge.
func (r Reference) PoolSum(in, out []float32, n, window int) {
	for i := 0; i < n; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float32
		for j := start; j <= i; j++ {
			sum += in[j]
		}
		out[i] = sum
	}
}

// PrefixSum computes the inclusive scan out[i] = in[0] + ... + in[i]
func (r Reference) PrefixSum(in, out []float32) {
	var sum float32
	for i, v := range in {
		sum += v
		out[i] = sum
	}
}

// SoftmaxInto computes out[i] = exp(in[i] - max(in)) / sum(exp(in - max)),
// the numerically stable form: sequential max, then exponentiate and sum,
// then normalize. in is left untouched.
func (r Reference) SoftmaxInto(in, out []float32) {
	max := r.Max(in)

	var sum float32
	for i, v := range in {
		out[i] = float32(math.Exp(float64(v - max)))
		sum += out[i]
	}

	for i := range out {
		out[i] /= sum
	}
}

// MatMul computes out = a × b for row-major a (m×k), b (k×n), out (m×n)
func (r Reference) MatMul(a, b, out []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for l := 0; l < k; l++ {
				sum += a[i*k+l] * b[l*n+j]
			}
			out[i*n+j] = sum
		}
	}
}

// AxisSum reduces each row of a rows×cols matrix: out[i] = sum of row i
func (r Reference) AxisSum(in, out []float32, rows, cols int) {
	for i := 0; i < rows; i++ {
		var sum float32
		for j := 0; j < cols; j++ {
			sum += in[i*cols+j]
		}
		out[i] = sum
	}
}
