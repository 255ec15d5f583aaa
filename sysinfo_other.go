//go:build !linux
// +build !linux

package puzzles

// systemMemory returns total system memory in bytes.
// Without a portable query this defaults to 16GB.
func systemMemory() uint64 {
	return 16 * 1024 * 1024 * 1024
}
