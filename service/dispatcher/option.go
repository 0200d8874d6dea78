package dispatcher

import (
	"time"

	"github.com/viant/scorepool/metrics"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/progress"
	"github.com/viant/scorepool/service/buffer"
	"github.com/viant/scorepool/service/queue"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithConcurrency sets a fixed concurrency limit.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		s.config.Concurrency = n
	}
}

// WithUnitTimeout enables the unit watchdog.
func WithUnitTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.UnitTimeout = timeout
	}
}

// WithMaxQueue bounds the overflow queue.
func WithMaxQueue(n int) Option {
	return func(s *Service) {
		s.config.MaxQueue = n
	}
}

// WithPreciseCancel carries identity tokens through the overflow queue.
func WithPreciseCancel() Option {
	return func(s *Service) {
		s.config.PreciseCancel = true
	}
}

// WithBufferCapacity sets the scratch buffer capacity.
func WithBufferCapacity(capacity int) Option {
	return func(s *Service) {
		s.config.BufferCapacity = capacity
	}
}

// WithBufferProvider replaces the buffer allocator.
func WithBufferProvider(provider buffer.Provider) Option {
	return func(s *Service) {
		s.provider = provider
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records dispatcher activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithProgress sets the progress tracker.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.progress = tracker
	}
}

// WithProgressListener registers a callback invoked after every counter change.
func WithProgressListener(fn func(progress.Counters)) Option {
	return func(s *Service) {
		s.listener = fn
	}
}

// SubmitOption customises a single submission.
type SubmitOption func(*queue.Entry)

// OnDrop registers fn for a task that ends without a result: discarded for a
// cancelled token, flushed by Cancel or Withdraw, lost to the unit watchdog or
// abandoned by Shutdown. fn runs outside the dispatcher lock and must not
// block.
func OnDrop(fn model.DropFunc) SubmitOption {
	return func(entry *queue.Entry) {
		entry.Dropped = fn
	}
}
