// Package monitor samples host resources on a fixed interval, prints a live
// dashboard line per sample and persists the sample history when stopped.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/htmlbench/internal/common"
	"github.com/wesleyorama2/htmlbench/internal/jsonfile"
	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

const (
	DefaultInterval = time.Second
	DefaultOutput   = "system_monitor.json"
)

// State is the sampler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Reader produces one resource sample per call.
type Reader interface {
	Collect(ctx context.Context) (*sysstat.Sample, error)
}

// Config contains configuration for a Sampler.
type Config struct {
	Interval time.Duration
	Output   string
}

// Sampler runs the sampling loop. A Sampler runs at most once.
type Sampler struct {
	reader   Reader
	console  *output.Console
	interval time.Duration
	output   string
	log      *slog.Logger

	state atomic.Int32

	mu      sync.Mutex
	samples []sysstat.Sample

	now func() time.Time
}

func New(reader Reader, console *output.Console, cfg Config, log *slog.Logger) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}

	return &Sampler{
		reader:   reader,
		console:  console,
		interval: cfg.Interval,
		output:   cfg.Output,
		log:      log.With(slog.String("component", "sampler")),
		now:      time.Now,
	}
}

func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Samples returns a copy of the collected history.
func (s *Sampler) Samples() []sysstat.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]sysstat.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Run samples until ctx is cancelled, then saves the history and prints the
// summary. Cancellation takes effect after the current iteration.
func (s *Sampler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return common.ErrSamplerStarted
	}

	s.printStart()

	for ctx.Err() == nil {
		sample, ok := s.sampleOnce(ctx)
		if !ok {
			break
		}

		s.mu.Lock()
		s.samples = append(s.samples, *sample)
		s.mu.Unlock()

		s.console.Println(FormatLine(s.console, sample))

		select {
		case <-ctx.Done():
		case <-time.After(s.interval):
		}
	}

	s.state.Store(int32(StateStopped))
	s.console.Println()
	s.console.Info("Stopping monitoring...")

	return s.finish()
}

// sampleOnce collects one sample. Collection failures become error records;
// ok is false only when the failure was caused by cancellation.
func (s *Sampler) sampleOnce(ctx context.Context) (*sysstat.Sample, bool) {
	sample, err := s.reader.Collect(ctx)
	if err == nil {
		return sample, true
	}
	if ctx.Err() != nil {
		return nil, false
	}

	s.log.Warn("Sample failed", slog.Any("error", err))
	return &sysstat.Sample{
		Timestamp: util.ISOTime(s.now()),
		Error:     err.Error(),
	}, true
}

func (s *Sampler) finish() error {
	samples := s.Samples()
	if len(samples) == 0 {
		return nil
	}

	if err := jsonfile.WriteAtomic(s.output, samples); err != nil {
		s.console.Error("Error saving data: %v", err)
		return err
	}

	s.console.Success("Data saved to %s", s.output)
	s.console.Info("Total samples: %d", len(samples))

	PrintSummary(s.console, samples, s.interval)
	return nil
}

func (s *Sampler) printStart() {
	s.console.Info("Starting system monitoring...")
	s.console.Field("Interval", fmt.Sprintf("%g seconds", s.interval.Seconds()))
	s.console.Field("Output file", s.output)
	s.console.Println("Monitoring CPU, Memory, Disk, Network...")
	s.console.Println("Press Ctrl+C to stop")
	s.console.Println()
}
