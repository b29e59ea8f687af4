package config

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Listen)
	assert.Equal(t, "html_files", cfg.Server.HTMLDir)
	assert.Equal(t, "http://localhost:5000", cfg.Load.Host)
	assert.Equal(t, "load_test_info.json", cfg.Load.Output)
	assert.Equal(t, time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "system_monitor.json", cfg.Monitor.Output)
	assert.Empty(t, ValidateConfig(cfg))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "htmlbench.yaml")
	content := `
log_level: debug
server:
  listen: 127.0.0.1:8080
  html_dir: /srv/html
  shutdown_timeout: 10s
load:
  users: 50
  spawn_rate: 5
  duration: 2m
monitor:
  interval: 500ms
  matches: [nginx]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "/srv/html", cfg.Server.HTMLDir)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 50, cfg.Load.Users)
	assert.Equal(t, 5.0, cfg.Load.SpawnRate)
	assert.Equal(t, 2*time.Minute, cfg.Load.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.Interval)
	assert.Equal(t, []string{"nginx"}, cfg.Monitor.Matches)

	// unspecified keys keep their defaults
	assert.Equal(t, "http://localhost:5000", cfg.Load.Host)
	assert.Equal(t, "system_monitor.json", cfg.Monitor.Output)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unterminated"), 0644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing config file")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("load:\n  users: 0\n"), 0644))
	_, err = Load(invalid)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "load.users", verrs[0].Path)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HTMLBENCH_LOG_LEVEL":        "WARN",
		"HTMLBENCH_LISTEN":           ":9000",
		"HTMLBENCH_HOST":             "http://target:5000",
		"HTMLBENCH_USERS":            "200",
		"HTMLBENCH_SPAWN_RATE":       "12.5",
		"HTMLBENCH_MAX_RPS":          "100",
		"HTMLBENCH_MONITOR_INTERVAL": "2s",
		"HTMLBENCH_MONITOR_MATCH":    "nginx, gunicorn ,",
		"HTMLBENCH_HTML_DIR":         "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, lookup))

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "html_files", cfg.Server.HTMLDir, "blank values are ignored")
	assert.Equal(t, "http://target:5000", cfg.Load.Host)
	assert.Equal(t, 200, cfg.Load.Users)
	assert.Equal(t, 12.5, cfg.Load.SpawnRate)
	assert.Equal(t, 100.0, cfg.Load.MaxRPS)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, []string{"nginx", "gunicorn"}, cfg.Monitor.Matches)
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "HTMLBENCH_USERS" {
			return "many", true
		}
		return "", false
	}

	err := ApplyEnv(Default(), lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTMLBENCH_USERS")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTMLBENCH_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("HTMLBENCH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env"), path))
	assert.Equal(t, "loaded", os.Getenv("HTMLBENCH_TEST_DOTENV"))
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		got, err := cfg.SlogLevel()
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: LogLevelWarn}

	log, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestValidateConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Server.Listen = "nowhere"
	cfg.Load.Host = "localhost"
	cfg.Load.SpawnRate = 0
	cfg.Monitor.Interval = 0

	errs := ValidateConfig(cfg)
	paths := make([]string, 0, len(errs))
	for _, e := range errs {
		paths = append(paths, e.Path)
	}

	assert.ElementsMatch(t, []string{
		"log_level",
		"server.listen",
		"load.host",
		"load.spawn_rate",
		"monitor.interval",
	}, paths)
	assert.Contains(t, errs.Error(), "invalid configuration")
}

func TestValidateConfig_NonFiniteRates(t *testing.T) {
	tests := []struct {
		name      string
		spawnRate float64
		maxRPS    float64
		paths     []string
	}{
		{"nan spawn rate", math.NaN(), 0, []string{"load.spawn_rate"}},
		{"inf spawn rate", math.Inf(1), 0, []string{"load.spawn_rate"}},
		{"inf max rps", 1, math.Inf(1), []string{"load.max_rps"}},
		{"nan max rps", 1, math.NaN(), []string{"load.max_rps"}},
		{"large finite spawn rate", 2e9, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Load.SpawnRate = tt.spawnRate
			cfg.Load.MaxRPS = tt.maxRPS

			var paths []string
			for _, e := range ValidateConfig(cfg) {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestApplyEnv_NonFiniteSpawnRateIsRejected(t *testing.T) {
	cfg := Default()
	lookup := func(k string) (string, bool) {
		if k == "HTMLBENCH_SPAWN_RATE" {
			return "Inf", true
		}
		return "", false
	}

	require.NoError(t, ApplyEnv(cfg, lookup))
	errs := ValidateConfig(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "load.spawn_rate", errs[0].Path)
}
