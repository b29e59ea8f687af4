package loadgen

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wesleyorama2/htmlbench/internal/jsonfile"
	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

const DefaultOutput = "load_test_info.json"

// Config contains configuration for a load test run.
type Config struct {
	Host      string
	Users     int
	SpawnRate float64
	// Duration of zero runs until the context is cancelled.
	Duration time.Duration
	// MaxRPS of zero disables the global rate limit.
	MaxRPS float64
	// Target is the success count announced once when reached.
	Target int64
	Output string
	// HTMLReport, when set, is the path of an HTML report written at the end.
	HTMLReport string
	Preflight  bool
	HTTP       HTTPClientConfig
}

// SnapshotFunc reads the compact system snapshot stored with a run.
type SnapshotFunc func(ctx context.Context) (*sysstat.Snapshot, error)

// DefaultSnapshot measures CPU over one second and disk usage of /.
func DefaultSnapshot(ctx context.Context) (*sysstat.Snapshot, error) {
	return sysstat.TakeSnapshot(ctx, sysstat.DefaultCPUWindow, sysstat.DefaultDiskPath)
}

// Runner executes one load test and records it in the run-summary file.
type Runner struct {
	cfg      Config
	profiles []*Profile
	client   *http.Client
	console  *output.Console
	log      *slog.Logger

	snapshot SnapshotFunc
	now      func() time.Time
}

func NewRunner(cfg Config, profiles []*Profile, console *output.Console, log *slog.Logger) (*Runner, error) {
	if cfg.Users < 1 {
		return nil, fmt.Errorf("users must be at least 1, got %d", cfg.Users)
	}
	if math.IsNaN(cfg.SpawnRate) || math.IsInf(cfg.SpawnRate, 0) || cfg.SpawnRate <= 0 {
		return nil, fmt.Errorf("spawn rate must be a positive number, got %g", cfg.SpawnRate)
	}
	if math.IsNaN(cfg.MaxRPS) || math.IsInf(cfg.MaxRPS, 0) || cfg.MaxRPS < 0 {
		return nil, fmt.Errorf("max rps must be a non-negative number, got %g", cfg.MaxRPS)
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.HTTP == (HTTPClientConfig{}) {
		cfg.HTTP = DefaultHTTPClientConfig()
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")

	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	return &Runner{
		cfg:      cfg,
		profiles: profiles,
		client:   NewHTTPClient(cfg.HTTP),
		console:  console,
		log:      log.With(slog.String("component", "loadgen")),
		snapshot: DefaultSnapshot,
		now:      time.Now,
	}, nil
}

// Run executes the test until the configured duration elapses or ctx is
// cancelled, whichever comes first.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	counts, err := Allocate(r.profiles, r.cfg.Users)
	if err != nil {
		return nil, err
	}

	if r.cfg.Preflight {
		res, err := Preflight(ctx, r.client, r.cfg.Host)
		if err != nil {
			return nil, err
		}
		for _, w := range res.Warnings {
			r.console.Warn("Preflight: %s", w)
		}
	}

	report := &Report{RunID: uuid.NewString()}
	metrics := NewMetrics()
	tracker := NewTracker(r.console, r.cfg.Target)

	report.Start = r.now()
	printStart(r.console, r.cfg, report.RunID, r.profiles, counts)
	r.saveStart(ctx, report)

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.cfg.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	sched := &Scheduler{
		baseURL:  r.cfg.Host,
		profiles: r.profiles,
		client:   r.client,
		metrics:  metrics,
		tracker:  tracker,
		limiter:  newLimiter(r.cfg.MaxRPS),
		console:  r.console,
		log:      r.log,
	}
	sched.Run(runCtx, counts, r.cfg.SpawnRate)

	report.End = r.now()
	report.Duration = report.End.Sub(report.Start)
	report.TotalRequests = tracker.Count()
	report.Totals = metrics.Snapshot()

	printStop(r.console, report)
	r.saveStop(context.WithoutCancel(ctx), report)

	if r.cfg.HTMLReport != "" {
		if err := GenerateHTML(report, r.cfg.HTMLReport); err != nil {
			r.console.Error("Error writing HTML report: %v", err)
		} else {
			r.console.Success("HTML report written to %s", r.cfg.HTMLReport)
		}
	}

	return report, nil
}

func newLimiter(maxRPS float64) *rate.Limiter {
	if maxRPS <= 0 {
		return nil
	}
	burst := int(maxRPS)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(maxRPS), burst)
}

// systemStats returns the snapshot, or an {"error": msg} object when it
// cannot be taken.
func (r *Runner) systemStats(ctx context.Context) any {
	snap, err := r.snapshot(ctx)
	if err != nil {
		r.log.Warn("System snapshot failed", slog.Any("error", err))
		return map[string]string{"error": err.Error()}
	}
	return snap
}

func (r *Runner) saveStart(ctx context.Context, report *Report) {
	r.save(map[string]any{
		"run_id":      report.RunID,
		"test_start":  util.Epoch(report.Start),
		"system_info": r.systemStats(ctx),
		"test_config": map[string]any{
			"host":       r.cfg.Host,
			"users":      r.cfg.Users,
			"spawn_rate": r.cfg.SpawnRate,
		},
	})
}

func (r *Runner) saveStop(ctx context.Context, report *Report) {
	r.save(map[string]any{
		"test_end":           util.Epoch(report.End),
		"test_duration":      report.Duration.Seconds(),
		"total_requests":     report.TotalRequests,
		"final_system_stats": r.systemStats(ctx),
		"latency":            summarizeLatency(report.Totals.Latency),
		"per_task":           summarizeTasks(report.Totals.Tasks),
	})
}

func (r *Runner) save(patch map[string]any) {
	if _, err := jsonfile.Merge(r.cfg.Output, patch); err != nil {
		r.console.Error("Error saving test info: %v", err)
		r.log.Error("Cannot save test info", slog.String("path", r.cfg.Output), slog.Any("error", err))
	}
}
