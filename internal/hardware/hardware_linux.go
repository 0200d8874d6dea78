//go:build linux

package hardware

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func platformParallelism() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	return set.Count()
}
