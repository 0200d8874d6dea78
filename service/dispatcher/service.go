package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/scorepool/internal/clock"
	"github.com/viant/scorepool/internal/idgen"
	"github.com/viant/scorepool/internal/logging"
	"github.com/viant/scorepool/metrics"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/progress"
	"github.com/viant/scorepool/service/buffer"
	"github.com/viant/scorepool/service/queue"
	"github.com/viant/scorepool/service/registry"
	"github.com/viant/scorepool/service/unit"
	"github.com/viant/scorepool/tracing"
	"go.uber.org/zap"
)

// Service dispatches tasks to execution units.
type Service struct {
	config   Config
	kernel   model.Kernel
	provider buffer.Provider
	logger   *zap.Logger
	metrics  *metrics.Metrics
	progress *progress.Progress
	listener func(progress.Counters)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	pool     *unit.Pool
	recycler *buffer.Recycler
	queue    *queue.Queue
	registry *registry.Registry
	inflight map[int]*flight
}

// flight tracks a dispatched task until its unit reports or is retired.
type flight struct {
	unit         *unit.Unit
	taskID       string
	token        string
	continuation model.Continuation
	dropped      model.DropFunc
	span         *tracing.Span
	dispatched   time.Time
	timer        *time.Timer
}

// settlement collects changes applied once the dispatcher lock is released.
type settlement struct {
	delta progress.Delta
	drops []dropNotice
}

type dropNotice struct {
	fn     model.DropFunc
	taskID string
	reason error
}

func (st *settlement) notify(fn model.DropFunc, taskID string, reason error) {
	if fn != nil {
		st.drops = append(st.drops, dropNotice{fn: fn, taskID: taskID, reason: reason})
	}
}

// discard ends the span of a queued entry that will never run.
func (st *settlement) discard(entry queue.Entry, reason error) {
	entry.Span.AddEvent("dropped")
	tracing.EndSpan(entry.Span, reason)
	st.notify(entry.Dropped, entry.Task.ID, reason)
}

// New creates a dispatcher running kernel on every execution unit.
func New(kernel model.Kernel, options ...Option) (*Service, error) {
	if kernel == nil {
		return nil, ErrKernelRequired
	}
	s := &Service{
		config: DefaultConfig(),
		kernel: kernel,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher config: %w", err)
	}
	s.logger = logging.OrNop(s.logger)
	if s.progress == nil {
		s.progress = progress.New("dispatcher", nil)
	}
	if s.listener != nil {
		s.progress.OnChange(s.listener)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.recycler = buffer.NewRecycler(s.config.BufferCapacity, s.provider)
	s.queue = queue.New(s.config.MaxQueue)
	s.registry = registry.New()
	s.inflight = make(map[int]*flight)
	s.pool = unit.NewPool(s.config.Limit(), func(id int) *unit.Unit {
		s.logger.Debug("execution unit created", zap.Int("unit", id))
		return unit.New(s.ctx, id, s.kernel, s.complete, s.logger)
	})
	s.logger.Info("dispatcher started",
		zap.Int("concurrency", s.pool.Limit()),
		zap.Int("bufferCapacity", s.recycler.Capacity()),
		zap.Duration("unitTimeout", s.config.UnitTimeout),
		zap.Int("maxQueue", s.config.MaxQueue),
		zap.Bool("preciseCancel", s.config.PreciseCancel))
	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

// Concurrency returns the execution unit limit.
func (s *Service) Concurrency() int {
	return s.pool.Limit()
}

// Progress returns the progress tracker.
func (s *Service) Progress() *progress.Progress {
	return s.progress
}

// Submit hands task to an idle execution unit or queues it. A task whose
// token was cancelled is dropped silently: Submit returns nil and the
// continuation never runs. An empty token means the task has no identity.
//
// Ownership of task passes to the dispatcher; the caller must not modify it
// after Submit returns.
func (s *Service) Submit(ctx context.Context, token string, task *model.Task, continuation model.Continuation, options ...SubmitOption) error {
	if task == nil {
		return ErrTaskRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = idgen.Task()
	}
	entry := queue.Entry{Task: task, Continuation: continuation}
	for _, opt := range options {
		opt(&entry)
	}

	var st settlement
	defer s.settle(&st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if token != "" && !s.registry.Admit(token) {
		st.delta.Submitted++
		st.delta.Cancelled++
		st.notify(entry.Dropped, task.ID, ErrCancelled)
		s.metrics.TaskSubmitted()
		s.metrics.TaskCancelled()
		s.logger.Debug("task cancelled before dispatch", zap.String("task", task.ID), zap.String("token", token))
		return nil
	}

	if s.config.PreciseCancel {
		entry.Token = token
	}
	_, entry.Span = tracing.StartSpan(ctx, "dispatcher.task")
	entry.Span.WithAttributes(map[string]string{"task.id": task.ID})

	if u, ok := s.pool.Acquire(); ok {
		st.delta.Submitted++
		s.metrics.TaskSubmitted()
		err := s.dispatchLocked(u, entry, &st)
		s.observeLocked()
		return err
	}

	if err := s.queue.Enqueue(entry); err != nil {
		tracing.EndSpan(entry.Span, err)
		s.logger.Warn("task rejected", zap.String("task", task.ID), zap.Error(err))
		return fmt.Errorf("failed to queue task %v: %w", task.ID, err)
	}
	entry.Span.AddEvent("queued")
	st.delta.Submitted++
	st.delta.Queued++
	st.delta.Pending++
	s.metrics.TaskSubmitted()
	s.metrics.TaskQueued()
	s.logger.Debug("task queued", zap.String("task", task.ID), zap.Int("depth", s.queue.Len()))
	s.observeLocked()
	return nil
}

// Enabled reports whether submissions under token would be accepted.
func (s *Service) Enabled(token string) bool {
	return token == "" || s.registry.Enabled(token)
}

// Cancel disables token and flushes the pending queue. Tasks already running
// are not interrupted and still deliver their results.
//
// With precise cancellation only queued entries carrying token are dropped;
// an empty token still flushes the whole queue.
func (s *Service) Cancel(token string) {
	var st settlement
	s.mu.Lock()
	if token != "" {
		s.registry.Disable(token)
	}
	var dropped []queue.Entry
	if s.config.PreciseCancel && token != "" {
		dropped = s.queue.RemoveFunc(func(entry queue.Entry) bool {
			return entry.Token == token
		})
	} else {
		dropped = s.queue.Clear()
	}
	s.discardLocked(dropped, ErrCancelled, &st)
	s.observeLocked()
	s.mu.Unlock()

	s.logger.Info("cancelled", zap.String("token", token), zap.Int("dropped", len(dropped)))
	s.settle(&st)
}

// Withdraw disables token and removes only the listed tasks from the pending
// queue, leaving queued work of other submitters in place. Listed tasks that
// are already running are not interrupted. It returns the number of tasks
// removed.
func (s *Service) Withdraw(token string, taskIDs ...string) int {
	ids := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		ids[id] = true
	}
	var st settlement
	s.mu.Lock()
	if token != "" {
		s.registry.Disable(token)
	}
	removed := s.queue.RemoveFunc(func(entry queue.Entry) bool {
		return ids[entry.Task.ID]
	})
	s.discardLocked(removed, ErrCancelled, &st)
	s.observeLocked()
	s.mu.Unlock()

	s.logger.Debug("withdrawn", zap.String("token", token), zap.Int("removed", len(removed)))
	s.settle(&st)
	return len(removed)
}

// Shutdown refuses new work, drops queued tasks and stops every unit. Running
// kernels observe the cancellation through their context; their results are
// discarded. Shutdown waits for unit goroutines until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var st settlement
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	queued := s.queue.Clear()
	s.discardLocked(queued, ErrClosed, &st)
	for id, f := range s.inflight {
		if f.timer != nil {
			f.timer.Stop()
		}
		tracing.EndSpan(f.span, ErrClosed)
		st.notify(f.dropped, f.taskID, ErrClosed)
		delete(s.inflight, id)
		st.delta.Running--
		st.delta.Dropped++
		s.metrics.TasksDropped(1)
	}
	units := s.pool.Close()
	s.cancel()
	s.observeLocked()
	s.mu.Unlock()

	s.settle(&st)
	s.logger.Info("dispatcher shutting down", zap.Int("units", len(units)), zap.Int("dropped", st.delta.Dropped))
	for _, u := range units {
		select {
		case <-u.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// dispatchLocked pairs u with a fresh buffer and sends the task.
func (s *Service) dispatchLocked(u *unit.Unit, entry queue.Entry, st *settlement) error {
	task := entry.Task
	task.Attach(s.recycler.Obtain())
	entry.Span.WithUnit(u.ID())

	f := &flight{
		unit:         u,
		taskID:       task.ID,
		token:        entry.Token,
		continuation: entry.Continuation,
		dropped:      entry.Dropped,
		span:         entry.Span,
		dispatched:   clock.Now(),
	}
	s.inflight[u.ID()] = f
	if err := u.Send(task); err != nil {
		delete(s.inflight, u.ID())
		s.recycler.Reclaim(task.Detach())
		s.pool.Retire(u)
		tracing.EndSpan(entry.Span, err)
		st.delta.Lost++
		s.metrics.TaskLost()
		s.logger.Error("failed to send task", zap.String("task", task.ID), zap.Int("unit", u.ID()), zap.Error(err))
		return fmt.Errorf("failed to dispatch task %v: %w: %v", task.ID, ErrUnitUnavailable, err)
	}
	if timeout := s.config.UnitTimeout; timeout > 0 {
		f.timer = time.AfterFunc(timeout, func() { s.expire(f) })
	}
	st.delta.Dispatched++
	st.delta.Running++
	s.metrics.TaskDispatched()
	s.logger.Debug("task dispatched", zap.String("task", task.ID), zap.Int("unit", u.ID()))
	return nil
}

// drainLocked dispatches queued entries while units are available.
func (s *Service) drainLocked(st *settlement) {
	for !s.closed && s.queue.Len() > 0 {
		u, ok := s.pool.Acquire()
		if !ok {
			return
		}
		entry, ok := s.nextLocked(st)
		if !ok {
			s.pool.Release(u)
			return
		}
		entry.Span.AddEvent("dequeued")
		if err := s.dispatchLocked(u, entry, st); err != nil {
			st.notify(entry.Dropped, entry.Task.ID, err)
			s.logger.Warn("queued task lost", zap.Error(err))
		}
	}
}

// nextLocked pops the oldest entry whose token is still enabled.
func (s *Service) nextLocked(st *settlement) (queue.Entry, bool) {
	for {
		entry, ok := s.queue.Next()
		if !ok {
			return queue.Entry{}, false
		}
		st.delta.Pending--
		if entry.Token != "" && !s.registry.Enabled(entry.Token) {
			st.delta.Cancelled++
			s.metrics.TaskCancelled()
			st.discard(entry, ErrCancelled)
			continue
		}
		return entry, true
	}
}

// discardLocked accounts for queued entries removed without running.
func (s *Service) discardLocked(entries []queue.Entry, reason error, st *settlement) {
	for _, entry := range entries {
		st.discard(entry, reason)
	}
	st.delta.Dropped += len(entries)
	st.delta.Pending -= len(entries)
	s.metrics.TasksDropped(len(entries))
}

// complete handles a result reported by u. It runs on the unit goroutine.
func (s *Service) complete(u *unit.Unit, result *model.Result) {
	s.mu.Lock()
	f, ok := s.inflight[u.ID()]
	if !ok || f.unit != u {
		s.recycler.Reclaim(result.Buffer)
		s.observeLocked()
		s.mu.Unlock()
		s.logger.Debug("late result discarded", zap.String("task", result.TaskID), zap.Int("unit", u.ID()))
		return
	}
	delete(s.inflight, u.ID())
	if f.timer != nil {
		f.timer.Stop()
	}
	s.mu.Unlock()

	if f.continuation != nil {
		s.invoke(f.continuation, result)
	}
	tracing.EndSpan(f.span, result.Err)

	var st settlement
	st.delta.Completed++
	st.delta.Running--
	if result.Err != nil {
		st.delta.Failed++
	}
	s.metrics.TaskCompleted(result.Duration, result.Err != nil)

	s.mu.Lock()
	s.pool.Release(u)
	s.recycler.Reclaim(result.Buffer)
	s.drainLocked(&st)
	s.observeLocked()
	s.mu.Unlock()

	s.settle(&st)
}

// invoke runs continuation, containing any panic so the unit is still released.
func (s *Service) invoke(continuation model.Continuation, result *model.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("continuation panicked", zap.String("task", result.TaskID), zap.Any("panic", r))
		}
	}()
	continuation(result)
}

// expire retires the unit of a task that exceeded the unit timeout. The task
// is lost: its continuation never runs.
func (s *Service) expire(f *flight) {
	var st settlement
	s.mu.Lock()
	current, ok := s.inflight[f.unit.ID()]
	if !ok || current != f {
		s.mu.Unlock()
		return
	}
	delete(s.inflight, f.unit.ID())
	s.pool.Retire(f.unit)
	tracing.EndSpan(f.span, ErrUnitTimeout)
	st.notify(f.dropped, f.taskID, ErrUnitTimeout)
	st.delta.Lost++
	st.delta.Running--
	s.metrics.TaskLost()
	s.drainLocked(&st)
	s.observeLocked()
	s.mu.Unlock()

	s.logger.Warn("execution unit retired",
		zap.String("task", f.taskID),
		zap.Int("unit", f.unit.ID()),
		zap.Duration("elapsed", clock.Since(f.dispatched)),
		zap.Error(ErrUnitTimeout))
	s.settle(&st)
}

// settle publishes progress and drop notifications collected under the lock.
func (s *Service) settle(st *settlement) {
	s.progress.Update(st.delta)
	for _, n := range st.drops {
		s.notifyDrop(n)
	}
}

func (s *Service) notifyDrop(n dropNotice) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("drop handler panicked", zap.String("task", n.taskID), zap.Any("panic", r))
		}
	}()
	n.fn(n.taskID, n.reason)
}

func (s *Service) observeLocked() {
	if s.metrics == nil {
		return
	}
	stats := s.pool.Stats()
	s.metrics.Observe(metrics.Occupancy{
		Busy:        stats.Busy,
		Live:        stats.Created,
		Queued:      s.queue.Len(),
		IdleBuffers: s.recycler.Stats().Idle,
	})
}
