// Package logging builds the zap loggers shared by scorepool services.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes logger construction.
type Config struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty"`
	Encoding    string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

// DefaultConfig returns an info level JSON logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Encoding: "json"}
}

// Validate checks level and encoding values.
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Encoding) {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("logging.encoding must be json or console, got %q", c.Encoding)
}

// New builds a logger from the supplied configuration.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zapConfig.Encoding = strings.ToLower(cfg.Encoding)
	}
	return zapConfig.Build()
}

// OrNop returns logger or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func parseLevel(text string) (zapcore.Level, error) {
	if text == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return level, fmt.Errorf("invalid logging.level %q: %w", text, err)
	}
	return level, nil
}
