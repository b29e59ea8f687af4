package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) ValidationErrors {
	var errors ValidationErrors

	if _, err := config.SlogLevel(); err != nil {
		errors = append(errors, ValidationError{
			Path:    "log_level",
			Message: fmt.Sprintf("must be one of %s, %s, %s, %s", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		})
	}

	// Validate server
	if _, _, err := net.SplitHostPort(config.Server.Listen); err != nil {
		errors = append(errors, ValidationError{
			Path:    "server.listen",
			Message: fmt.Sprintf("invalid address %q", config.Server.Listen),
		})
	}
	if config.Server.HTMLDir == "" {
		errors = append(errors, ValidationError{
			Path:    "server.html_dir",
			Message: "html_dir is required",
		})
	}
	if config.Server.ShutdownTimeout < 0 {
		errors = append(errors, ValidationError{
			Path:    "server.shutdown_timeout",
			Message: "shutdown_timeout cannot be negative",
		})
	}

	// Validate load
	if u, err := url.Parse(config.Load.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Path:    "load.host",
			Message: fmt.Sprintf("host must be an absolute URL, got %q", config.Load.Host),
		})
	}
	if config.Load.Users < 1 {
		errors = append(errors, ValidationError{
			Path:    "load.users",
			Message: "users must be at least 1",
		})
	}
	if !finite(config.Load.SpawnRate) || config.Load.SpawnRate <= 0 {
		errors = append(errors, ValidationError{
			Path:    "load.spawn_rate",
			Message: "spawn_rate must be a positive number",
		})
	}
	if config.Load.Duration < 0 {
		errors = append(errors, ValidationError{
			Path:    "load.duration",
			Message: "duration cannot be negative",
		})
	}
	if !finite(config.Load.MaxRPS) || config.Load.MaxRPS < 0 {
		errors = append(errors, ValidationError{
			Path:    "load.max_rps",
			Message: "max_rps must be a non-negative number",
		})
	}

	// Validate monitor
	if config.Monitor.Interval <= 0 {
		errors = append(errors, ValidationError{
			Path:    "monitor.interval",
			Message: "interval must be positive",
		})
	}
	if config.Monitor.Output == "" {
		errors = append(errors, ValidationError{
			Path:    "monitor.output",
			Message: "output is required",
		})
	}

	return errors
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
