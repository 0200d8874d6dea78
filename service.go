package scorepool

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/scorepool/internal/logging"
	"github.com/viant/scorepool/metrics"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/optimizer"
	"github.com/viant/scorepool/service/dispatcher"
	"github.com/viant/scorepool/tracing"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Service is the scheduler façade.
type Service struct {
	config            *Config
	kernel            model.Kernel
	logger            *zap.Logger
	registerer        prometheus.Registerer
	metrics           *metrics.Metrics
	fs                afs.Service
	dispatcherOptions []dispatcher.Option
	dispatcher        *dispatcher.Service
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.kernel == nil {
		s.kernel = optimizer.Kernel
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Logging)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if err := tracing.Setup(s.config.Tracing); err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	if s.registerer == nil && s.config.Metrics.Enabled {
		s.registerer = prometheus.DefaultRegisterer
	}
	if s.registerer != nil {
		m, err := metrics.New(s.registerer)
		if err != nil {
			return err
		}
		s.metrics = m
	}

	opts := append([]dispatcher.Option{
		dispatcher.WithConfig(s.config.Dispatcher),
		dispatcher.WithLogger(s.logger),
		dispatcher.WithMetrics(s.metrics),
	}, s.dispatcherOptions...)
	srv, err := dispatcher.New(s.kernel, opts...)
	if err != nil {
		return err
	}
	s.dispatcher = srv
	return nil
}

// New creates a service with DefaultConfig unless WithConfig is supplied.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewFromConfig creates a service from cfg.
func NewFromConfig(cfg *Config, options ...Option) (*Service, error) {
	return New(append([]Option{WithConfig(cfg)}, options...)...)
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Dispatcher returns the underlying dispatcher.
func (s *Service) Dispatcher() *dispatcher.Service {
	return s.dispatcher
}

// Metrics returns the collectors or nil when metrics are disabled.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger {
	return s.logger
}

// Submit schedules task; see dispatcher.Service.Submit.
func (s *Service) Submit(ctx context.Context, token string, task *model.Task, continuation model.Continuation) error {
	return s.dispatcher.Submit(ctx, token, task, continuation)
}

// Cancel disables token and flushes queued work; see dispatcher.Service.Cancel.
func (s *Service) Cancel(token string) {
	s.dispatcher.Cancel(token)
}

// State returns a dispatcher snapshot.
func (s *Service) State() dispatcher.Snapshot {
	return s.dispatcher.State()
}

// SaveState writes the YAML encoded snapshot to URL.
func (s *Service) SaveState(ctx context.Context, URL string) error {
	data, err := yaml.Marshal(s.State())
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save state to %v: %w", URL, err)
	}
	return nil
}

// Shutdown stops the dispatcher, flushes exported spans and the logger.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.dispatcher.Shutdown(ctx)
	if s.config.Tracing.Enabled {
		err = errors.Join(err, tracing.Shutdown(ctx))
	}
	_ = s.logger.Sync()
	return err
}
