package dispatcher

import (
	"errors"
	"fmt"
	"time"

	"github.com/viant/scorepool/internal/hardware"
	"github.com/viant/scorepool/service/buffer"
)

// Config represents dispatcher configuration.
type Config struct {
	// Concurrency caps the number of execution units; 0 derives it from the
	// hardware parallelism minus one.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// MinConcurrency floors the derived concurrency.
	MinConcurrency int `json:"minConcurrency" yaml:"minConcurrency"`

	// BufferCapacity is the element capacity of every scratch buffer.
	BufferCapacity int `json:"bufferCapacity" yaml:"bufferCapacity"`

	// UnitTimeout retires a unit whose task runs longer; 0 disables the watchdog.
	UnitTimeout time.Duration `json:"unitTimeout" yaml:"unitTimeout"`

	// MaxQueue bounds the overflow queue; 0 keeps it unbounded.
	MaxQueue int `json:"maxQueue" yaml:"maxQueue"`

	// PreciseCancel carries identity tokens through the queue so Cancel only
	// drops matching entries.
	PreciseCancel bool `json:"preciseCancel" yaml:"preciseCancel"`
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		MinConcurrency: 1,
		BufferCapacity: buffer.DefaultCapacity,
	}
}

// Limit resolves the effective concurrency limit.
func (c Config) Limit() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return hardware.Concurrency(hardware.Parallelism(), c.MinConcurrency)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative: %d", c.Concurrency))
	}
	if c.MinConcurrency < 0 {
		errs = append(errs, fmt.Errorf("minConcurrency must not be negative: %d", c.MinConcurrency))
	}
	if c.BufferCapacity < 0 {
		errs = append(errs, fmt.Errorf("bufferCapacity must not be negative: %d", c.BufferCapacity))
	}
	if c.UnitTimeout < 0 {
		errs = append(errs, fmt.Errorf("unitTimeout must not be negative: %s", c.UnitTimeout))
	}
	if c.MaxQueue < 0 {
		errs = append(errs, fmt.Errorf("maxQueue must not be negative: %d", c.MaxQueue))
	}
	return errors.Join(errs...)
}
