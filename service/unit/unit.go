package unit

import (
	"context"

	"github.com/viant/scorepool/internal/clock"
	"github.com/viant/scorepool/model"
	"go.uber.org/zap"
)

// Reporter receives the result of a task run by unit. It is called on the
// unit's goroutine.
type Reporter func(unit *Unit, result *model.Result)

// Unit is a single execution context.
type Unit struct {
	id       int
	inbox    chan *model.Task
	kernel   model.Kernel
	report   Reporter
	logger   *zap.Logger
	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}
	pooled   bool // guarded by the owning pool
}

// New starts a unit. The unit stops when ctx is cancelled or Stop is called.
func New(ctx context.Context, id int, kernel model.Kernel, report Reporter, logger *zap.Logger) *Unit {
	if logger == nil {
		logger = zap.NewNop()
	}
	unitCtx, cancel := context.WithCancel(ctx)
	u := &Unit{
		id:       id,
		inbox:    make(chan *model.Task, 1),
		kernel:   kernel,
		report:   report,
		logger:   logger.With(zap.Int("unit", id)),
		ctx:      unitCtx,
		cancelFn: cancel,
		done:     make(chan struct{}),
	}
	go u.run()
	return u
}

// ID returns the unit id, unique within its pool.
func (u *Unit) ID() int {
	return u.id
}

// Send hands task to the unit. Ownership of the task and its buffer passes to
// the unit; the caller must not touch either afterwards. Send never blocks.
func (u *Unit) Send(task *model.Task) error {
	if u.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case u.inbox <- task:
		return nil
	default:
		return ErrBusy
	}
}

// Stop cancels the unit context; a running kernel observes the cancellation
// through its context.
func (u *Unit) Stop() {
	u.cancelFn()
}

// Done is closed once the unit goroutine exits.
func (u *Unit) Done() <-chan struct{} {
	return u.done
}

func (u *Unit) run() {
	defer close(u.done)
	for {
		select {
		case <-u.ctx.Done():
			return
		case task := <-u.inbox:
			if !u.execute(task) {
				return
			}
		}
	}
}

// execute runs one task. A panicking kernel loses the unit: no result is
// reported and the goroutine exits.
func (u *Unit) execute(task *model.Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("kernel panicked, execution unit lost",
				zap.String("task", task.ID), zap.Any("panic", r))
			ok = false
		}
	}()
	started := clock.Now()
	output, err := u.kernel(u.ctx, task)
	result := &model.Result{
		TaskID:   task.ID,
		UnitID:   u.id,
		Output:   output,
		Err:      err,
		Buffer:   task.Detach(),
		Started:  started,
		Duration: clock.Since(started),
	}
	u.report(u, result)
	return true
}
