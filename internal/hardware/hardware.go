package hardware

// DefaultParallelism is assumed when the platform cannot report a CPU count.
const DefaultParallelism = 4

// Parallelism returns the number of logical CPUs this process may run on.
func Parallelism() int {
	if n := platformParallelism(); n > 0 {
		return n
	}
	return DefaultParallelism
}

// Concurrency derives a worker limit from the available parallelism: one CPU
// is left to the controlling goroutines and the result never drops below floor.
func Concurrency(parallelism, floor int) int {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	if floor < 1 {
		floor = 1
	}
	limit := parallelism - 1
	if limit < floor {
		limit = floor
	}
	return limit
}
