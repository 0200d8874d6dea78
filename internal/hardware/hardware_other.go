//go:build !linux

package hardware

import "runtime"

func platformParallelism() int {
	return runtime.NumCPU()
}
