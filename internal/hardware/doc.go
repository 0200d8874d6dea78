// Package hardware reports the parallelism available to the process. On Linux
// the scheduler affinity mask is honoured so that containers and taskset
// restrictions are reflected; other platforms fall back to runtime.NumCPU.
package hardware
