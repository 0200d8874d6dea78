package scorepool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/scorepool/model"
	"github.com/viant/scorepool/service/dispatcher"
	"go.uber.org/zap"
)

// Option represents scorepool service option
type Option func(s *Service)

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithKernel sets the function every execution unit runs; optimizer.Kernel is
// used when omitted.
func WithKernel(kernel model.Kernel) Option {
	return func(s *Service) {
		s.kernel = kernel
	}
}

// WithLogger sets the logger; otherwise one is built from Config.Logging.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegisterer enables metrics on the supplied registerer.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = registerer
	}
}

// WithFileSystem sets the file system used by SaveState.
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithDispatcherOptions lets the caller supply additional options passed to
// dispatcher.New after the configuration derived ones.
func WithDispatcherOptions(opts ...dispatcher.Option) Option {
	return func(s *Service) {
		s.dispatcherOptions = append(s.dispatcherOptions, opts...)
	}
}
