//go:build linux
// +build linux

package puzzles

import (
	"golang.org/x/sys/unix"
)

// systemMemory returns total system memory in bytes.
// The emulated device reports host RAM as its global memory size.
func systemMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 16 * 1024 * 1024 * 1024
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
