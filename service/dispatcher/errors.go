package dispatcher

import "errors"

var (
	// ErrClosed is returned by Submit after Shutdown.
	ErrClosed = errors.New("dispatcher is closed")
	// ErrKernelRequired is returned by New when no kernel is supplied.
	ErrKernelRequired = errors.New("kernel is required")
	// ErrTaskRequired is returned by Submit for a nil task.
	ErrTaskRequired = errors.New("task is required")
	// ErrCancelled is reported for tasks discarded because of a cancelled token.
	ErrCancelled = errors.New("task cancelled before dispatch")
	// ErrUnitUnavailable reports that an acquired unit refused a task.
	ErrUnitUnavailable = errors.New("execution unit unavailable")
	// ErrUnitTimeout is recorded on tasks whose unit was retired by the watchdog.
	ErrUnitTimeout = errors.New("execution unit timed out")
)
