package unit

import "errors"

var (
	// ErrBusy is returned when a task is sent to a unit that already holds one.
	ErrBusy = errors.New("execution unit is busy")
	// ErrStopped is returned when a task is sent to a stopped unit.
	ErrStopped = errors.New("execution unit is stopped")
)
