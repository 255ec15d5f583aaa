package puzzles

import (
	"math"
	"strings"
	"testing"
)

func TestFloat32NearEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float32
		tol      ToleranceConfig
		expected bool
	}{
		{
			name:     "Exact_Equal",
			a:        1.0,
			b:        1.0,
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name:     "Within_AbsTol",
			a:        1e-8,
			b:        2e-8,
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name:     "Outside_AbsTol",
			a:        1e-6,
			b:        2e-6,
			tol:      DefaultTolerance(),
			expected: false,
		},
		{
			name:     "Within_RelTol",
			a:        10000.0,
			b:        10000.05,
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name:     "Outside_RelTol",
			a:        10000.0,
			b:        10001.0,
			tol:      DefaultTolerance(),
			expected: false,
		},
		{
			name:     "Both_Zero",
			a:        0.0,
			b:        -0.0,
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name:     "Both_NaN",
			a:        float32(math.NaN()),
			b:        float32(math.NaN()),
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name: "NaN_Not_Checked",
			a:    float32(math.NaN()),
			b:    float32(math.NaN()),
			tol: ToleranceConfig{
				CheckNaN: false,
			},
			expected: false,
		},
		{
			name:     "Both_PosInf",
			a:        float32(math.Inf(1)),
			b:        float32(math.Inf(1)),
			tol:      DefaultTolerance(),
			expected: true,
		},
		{
			name:     "Mixed_Inf",
			a:        float32(math.Inf(1)),
			b:        float32(math.Inf(-1)),
			tol:      DefaultTolerance(),
			expected: false,
		},
		// ULP-only tolerance isolates the bit-distance check from the
		// absolute and relative paths.
		{
			name:     "Within_ULP",
			a:        1.0,
			b:        math.Float32frombits(math.Float32bits(1.0) + 2),
			tol:      ToleranceConfig{ULPTol: 4},
			expected: true,
		},
		{
			name:     "Outside_ULP",
			a:        1.0,
			b:        math.Float32frombits(math.Float32bits(1.0) + 5),
			tol:      ToleranceConfig{ULPTol: 4},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Float32NearEqual(tt.a, tt.b, tt.tol)
			if result != tt.expected {
				t.Errorf("Float32NearEqual(%v, %v) = %v, want %v",
					tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestFloat32ULPDiff(t *testing.T) {
	if d := Float32ULPDiff(1.0, 1.0); d != 0 {
		t.Errorf("ULP diff of equal values = %d, want 0", d)
	}

	next := math.Float32frombits(math.Float32bits(1.0) + 1)
	if d := Float32ULPDiff(1.0, next); d != 1 {
		t.Errorf("ULP diff of adjacent values = %d, want 1", d)
	}

	if d := Float32ULPDiff(1.0, -1.0); d != math.MaxInt32 {
		t.Errorf("ULP diff across signs = %d, want MaxInt32", d)
	}
}

func TestVerifyFloat32Array(t *testing.T) {
	tol := DefaultTolerance()

	t.Run("AllMatch", func(t *testing.T) {
		a := []float32{1, 2, 3}
		result := VerifyFloat32Array(a, a, tol)
		if result.NumErrors != 0 || result.FirstError != -1 {
			t.Errorf("matching arrays reported %d errors, first at %d",
				result.NumErrors, result.FirstError)
		}
		if !strings.Contains(result.String(), "PASS") {
			t.Errorf("String() = %q, want PASS", result.String())
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		expected := []float32{1, 2, 3, 4}
		actual := []float32{1, 2, 5, 4}
		result := VerifyFloat32Array(expected, actual, tol)
		if result.NumErrors != 1 {
			t.Errorf("NumErrors = %d, want 1", result.NumErrors)
		}
		if result.FirstError != 2 {
			t.Errorf("FirstError = %d, want 2", result.FirstError)
		}
		if result.MaxAbsError != 2 {
			t.Errorf("MaxAbsError = %f, want 2", result.MaxAbsError)
		}
		if !strings.Contains(result.String(), "FAIL") {
			t.Errorf("String() = %q, want FAIL", result.String())
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		result := VerifyFloat32Array([]float32{1, 2}, []float32{1}, tol)
		if result.NumErrors != 2 {
			t.Errorf("NumErrors = %d, want 2", result.NumErrors)
		}
	})
}

// KernelVerifier drives the whole oracle-vs-device loop for one kernel
func TestKernelVerifier(t *testing.T) {
	ref := Reference{}

	verifier := KernelVerifier{
		Name: "softmax",
		Reference: func(in []float32) []float32 {
			out := make([]float32, len(in))
			ref.SoftmaxInto(in, out)
			return out
		},
		Kernel:    Softmax,
		Tolerance: NormalizationTolerance(),
	}

	result, err := verifier.Verify([]float32{-2, 0, 1, 3, 3, -7, 0.5})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.NumErrors != 0 {
		t.Errorf("softmax verification failed:\n%s", result)
	}
}

func TestBatchVerifier(t *testing.T) {
	ref := Reference{}

	batch := BatchVerifier{
		Verifiers: []KernelVerifier{
			{
				Name: "softmax",
				Reference: func(in []float32) []float32 {
					out := make([]float32, len(in))
					ref.SoftmaxInto(in, out)
					return out
				},
				Kernel:    Softmax,
				Tolerance: NormalizationTolerance(),
			},
			{
				Name: "add_ten",
				Reference: func(in []float32) []float32 {
					out := make([]float32, len(in))
					ref.AddScalar(in, 10, out)
					return out
				},
				Kernel: func(out, in DevicePtr, n int) error {
					return AddScalar(out, in, 10, n)
				},
				Tolerance: DefaultTolerance(),
			},
		},
		TestCases: []TestCase{
			{Name: "small", Input: []float32{1, 2, 3}},
			{Name: "negative", Input: []float32{-5, -1, -0.5, -2}},
			{Name: "wide_range", Input: []float32{-100, 0, 100}},
		},
	}

	for _, br := range batch.RunAll() {
		summary := br.Summary()
		if !strings.Contains(summary, "3 passed, 0 failed, 0 errors") {
			t.Errorf("%s: unexpected summary %q", br.KernelName, summary)
		}
		for _, r := range br.Results {
			if r.Error != nil {
				t.Errorf("%s/%s: %v", br.KernelName, r.TestName, r.Error)
			}
			if r.Result.NumErrors != 0 {
				t.Errorf("%s/%s:\n%s", br.KernelName, r.TestName, r.Result)
			}
		}
	}
}
