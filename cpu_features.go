package puzzles

import (
	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool // Foundation
	HasFMA     bool
	HasNEON    bool // ARM
}

// Global CPU feature detection
var cpuFeatures CPUFeatures

func init() {
	detectCPUFeatures()
}

// detectCPUFeatures populates the global cpuFeatures struct
func detectCPUFeatures() {
	cpuFeatures = CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasFMA:     cpu.X86.HasFMA,
		HasNEON:    cpu.ARM64.HasASIMD,
	}
}

// VectorWidth returns the number of float32 lanes the widest available
// SIMD extension can process at once. It is reported in device
// properties; kernels themselves are scalar.
func VectorWidth() int {
	switch {
	case cpuFeatures.HasAVX512F:
		return 16
	case cpuFeatures.HasAVX2, cpuFeatures.HasAVX:
		return 8
	case cpuFeatures.HasSSE4, cpuFeatures.HasNEON:
		return 4
	default:
		return 1
	}
}

// simdName returns the name of the widest available SIMD extension.
func simdName() string {
	switch {
	case cpuFeatures.HasAVX512F:
		return "AVX512"
	case cpuFeatures.HasAVX2:
		return "AVX2"
	case cpuFeatures.HasAVX:
		return "AVX"
	case cpuFeatures.HasSSE4:
		return "SSE4"
	case cpuFeatures.HasNEON:
		return "NEON"
	default:
		return "scalar"
	}
}

// deviceName describes the emulated device for GetDeviceProperties.
func deviceName() string {
	return "CPU Device (" + simdName() + ")"
}

// GetCPUInfo returns a string describing available CPU features
func GetCPUInfo() string {
	features := []string{}

	if cpuFeatures.HasSSE4 {
		features = append(features, "SSE4")
	}
	if cpuFeatures.HasAVX {
		features = append(features, "AVX")
	}
	if cpuFeatures.HasAVX2 {
		features = append(features, "AVX2")
	}
	if cpuFeatures.HasFMA {
		features = append(features, "FMA")
	}
	if cpuFeatures.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if cpuFeatures.HasNEON {
		features = append(features, "NEON")
	}

	if len(features) == 0 {
		return "No SIMD extensions detected"
	}

	result := "CPU features: "
	for i, f := range features {
		if i > 0 {
			result += ", "
		}
		result += f
	}
	return result
}
