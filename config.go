package scorepool

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/scorepool/internal/logging"
	"github.com/viant/scorepool/service/dispatcher"
	"github.com/viant/scorepool/tracing"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the scheduler configuration.
// Fields left out of a loaded document keep their DefaultConfig values.
type Config struct {
	Dispatcher dispatcher.Config `json:"dispatcher" yaml:"dispatcher"`
	Logging    logging.Config    `json:"logging" yaml:"logging"`
	Tracing    tracing.Config    `json:"tracing" yaml:"tracing"`
	Metrics    MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Address is the listen address of the CLI /metrics endpoint.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults. Callers may
// modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: dispatcher.DefaultConfig(),
		Logging:    logging.DefaultConfig(),
		Tracing:    tracing.DefaultConfig(),
		Metrics:    MetricsConfig{Address: ":9090"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Dispatcher.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics: address is required when enabled"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML document from URL (any scheme supported by afs)
// over DefaultConfig and validates the result.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return cfg, nil
}
