// Package model contains the data exchanged between submitters, the
// dispatcher and execution units: tasks, results, kernels and the movable
// scratch buffers attached to tasks.
//
// The scheduler treats Task.Payload and Result.Output as opaque values; only
// the kernel and the continuation interpret them.
package model
