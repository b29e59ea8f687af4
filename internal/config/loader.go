// Package config loads htmlbench settings from a YAML file, a .env file and
// HTMLBENCH_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	EnvPrefix = "HTMLBENCH_"
)

// Config represents the top-level configuration
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Load     LoadConfig    `yaml:"load"`
	Monitor  MonitorConfig `yaml:"monitor"`
}

// ServerConfig configures the file server.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	HTMLDir         string        `yaml:"html_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoadConfig configures the load generator.
type LoadConfig struct {
	Host      string        `yaml:"host"`
	Users     int           `yaml:"users"`
	SpawnRate float64       `yaml:"spawn_rate"`
	Duration  time.Duration `yaml:"duration"`
	MaxRPS    float64       `yaml:"max_rps"`
	Timeout   time.Duration `yaml:"timeout"`
	Profiles  string        `yaml:"profiles"`
	Output    string        `yaml:"output"`
	Preflight bool          `yaml:"preflight"`
}

// MonitorConfig configures the resource sampler.
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	Output   string        `yaml:"output"`
	Matches  []string      `yaml:"matches"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: LogLevelInfo,
		Server: ServerConfig{
			Listen:          "0.0.0.0:5000",
			HTMLDir:         "html_files",
			ShutdownTimeout: 5 * time.Second,
		},
		Load: LoadConfig{
			Host:      "http://localhost:5000",
			Users:     10,
			SpawnRate: 1,
			Timeout:   30 * time.Second,
			Output:    "load_test_info.json",
			Preflight: true,
		},
		Monitor: MonitorConfig{
			Interval: time.Second,
			Output:   "system_monitor.json",
			Matches:  []string{"htmlbench", "python", "flask", "locust"},
		},
	}
}

// LoadDotEnv loads variables from .env-style files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}

	return nil
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (skipped when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if errs := ValidateConfig(cfg); len(errs) > 0 {
		return nil, errs
	}

	return cfg, nil
}

// ApplyEnv overlays HTMLBENCH_* variables found through lookup onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}

	// server
	if v, ok := get("LISTEN"); ok {
		cfg.Server.Listen = v
	}
	if v, ok := get("HTML_DIR"); ok {
		cfg.Server.HTMLDir = v
	}

	// load
	if v, ok := get("HOST"); ok {
		cfg.Load.Host = v
	}
	if v, ok := get("USERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("USERS", v, err)
		}
		cfg.Load.Users = n
	}
	if v, ok := get("SPAWN_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError("SPAWN_RATE", v, err)
		}
		cfg.Load.SpawnRate = f
	}
	if v, ok := get("DURATION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("DURATION", v, err)
		}
		cfg.Load.Duration = d
	}
	if v, ok := get("MAX_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError("MAX_RPS", v, err)
		}
		cfg.Load.MaxRPS = f
	}
	if v, ok := get("LOAD_OUTPUT"); ok {
		cfg.Load.Output = v
	}

	// monitor
	if v, ok := get("MONITOR_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("MONITOR_INTERVAL", v, err)
		}
		cfg.Monitor.Interval = d
	}
	if v, ok := get("MONITOR_OUTPUT"); ok {
		cfg.Monitor.Output = v
	}
	if v, ok := get("MONITOR_MATCH"); ok {
		cfg.Monitor.Matches = splitList(v)
	}

	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, value, err)
}

func splitList(v string) []string {
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// SlogLevel maps the configured level name to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case LogLevelDebug:
		return slog.LevelDebug, nil
	case LogLevelInfo, "":
		return slog.LevelInfo, nil
	case LogLevelWarn:
		return slog.LevelWarn, nil
	case LogLevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
