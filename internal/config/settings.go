package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

var (
	probeMethods  = []string{"exec", "icmp"}
	outputFormats = []string{"text", "json", "yaml", "yml"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Settings is the typed form of the configuration.
type Settings struct {
	Sweep    SweepSettings    `mapstructure:"sweep"`
	Probe    ProbeSettings    `mapstructure:"probe"`
	Resolver ResolverSettings `mapstructure:"resolver"`
	Output   OutputSettings   `mapstructure:"output"`
	Metrics  MetricsSettings  `mapstructure:"metrics"`
	OUI      OUISettings      `mapstructure:"oui"`
	Log      LogSettings      `mapstructure:"log"`
}

// SweepSettings controls the host sweep.
type SweepSettings struct {
	Concurrency int     `mapstructure:"concurrency"`
	Skip        bool    `mapstructure:"skip"`
	Rate        float64 `mapstructure:"rate"`
	MaxHosts    int     `mapstructure:"max_hosts"`
}

// ProbeSettings controls the echo probe.
type ProbeSettings struct {
	Method     string        `mapstructure:"method"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Privileged bool          `mapstructure:"privileged"`
}

// ResolverSettings controls reverse DNS.
type ResolverSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Server  string        `mapstructure:"server"`
}

// OutputSettings selects the report format and sink.
type OutputSettings struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// MetricsSettings selects where metrics are written.
type MetricsSettings struct {
	Textfile string `mapstructure:"textfile"`
}

// OUISettings locates the IEEE MA-L registry used for vendor lookup.
type OUISettings struct {
	// Database is an oui.txt path; empty searches the system locations.
	Database string `mapstructure:"database"`
}

// LogSettings configures zap.
type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Settings decodes and validates the configuration.
func (c *Config) Settings() (*Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks value ranges and enumerations.
func (s *Settings) Validate() error {
	var errs []error
	if s.Sweep.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("sweep.concurrency must be at least 1, got %d", s.Sweep.Concurrency))
	}
	if s.Sweep.Rate < 0 {
		errs = append(errs, fmt.Errorf("sweep.rate must not be negative, got %g", s.Sweep.Rate))
	}
	if s.Sweep.MaxHosts < 0 {
		errs = append(errs, fmt.Errorf("sweep.max_hosts must not be negative, got %d", s.Sweep.MaxHosts))
	}
	if !slices.Contains(probeMethods, strings.ToLower(s.Probe.Method)) {
		errs = append(errs, fmt.Errorf("probe.method %q not one of %s", s.Probe.Method, strings.Join(probeMethods, ", ")))
	}
	if s.Probe.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.timeout must be positive, got %s", s.Probe.Timeout))
	}
	if s.Resolver.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("resolver.timeout must be positive, got %s", s.Resolver.Timeout))
	}
	if !slices.Contains(outputFormats, strings.ToLower(s.Output.Format)) {
		errs = append(errs, fmt.Errorf("output.format %q not one of text, json, yaml", s.Output.Format))
	}
	if !slices.Contains(logLevels, strings.ToLower(s.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q not one of %s", s.Log.Level, strings.Join(logLevels, ", ")))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
