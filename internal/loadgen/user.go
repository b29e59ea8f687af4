package loadgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/wesleyorama2/htmlbench/internal/output"
)

// UserState represents the lifecycle state of a simulated user.
type UserState int32

const (
	UserStateIdle UserState = iota
	UserStateRunning
	UserStateStopped
)

func (s UserState) String() string {
	switch s {
	case UserStateIdle:
		return "idle"
	case UserStateRunning:
		return "running"
	case UserStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// VirtualUser is one simulated user bound to a profile.
type VirtualUser struct {
	ID      int
	Profile *Profile

	baseURL string
	client  *http.Client
	metrics *Metrics
	tracker *Tracker
	limiter *rate.Limiter
	console *output.Console
	log     *slog.Logger
	rng     *rand.Rand

	state     atomic.Int32
	iteration atomic.Int64
}

// RequestResult contains the result of a single HTTP request.
type RequestResult struct {
	Name          string
	Path          string
	Duration      time.Duration
	StatusCode    int
	BytesReceived int64
	Error         error
}

// Failed reports whether the request counts as a failure: a transport
// error or a status of 400 or above.
func (r *RequestResult) Failed() bool {
	return r.Error != nil || r.StatusCode >= http.StatusBadRequest
}

func (r *RequestResult) failure() error {
	if r.Error != nil {
		return r.Error
	}
	return fmt.Errorf("HTTP %d", r.StatusCode)
}

func (vu *VirtualUser) State() UserState {
	return UserState(vu.state.Load())
}

// Iterations returns the number of tasks the user has executed.
func (vu *VirtualUser) Iterations() int64 {
	return vu.iteration.Load()
}

// Run performs the start-up health check and then executes tasks until ctx
// is cancelled.
func (vu *VirtualUser) Run(ctx context.Context) {
	vu.state.Store(int32(UserStateRunning))
	defer vu.state.Store(int32(UserStateStopped))

	vu.healthCheck(ctx)

	for ctx.Err() == nil {
		task := vu.Profile.PickTask(vu.rng)
		path, name := task.Pick(vu.rng)

		if vu.limiter != nil {
			if err := vu.limiter.Wait(ctx); err != nil {
				return
			}
		}

		result := vu.executeRequest(ctx, path, name)
		if ctx.Err() != nil && result.Error != nil {
			return
		}
		vu.record(result)
		vu.iteration.Add(1)

		vu.applyThinkTime(ctx, vu.Profile.Wait(vu.rng))
	}
}

// healthCheck requests the homepage once and records it like any other
// request. A failure is reported and the user carries on.
func (vu *VirtualUser) healthCheck(ctx context.Context) {
	result := vu.executeRequest(ctx, "/", "Homepage")
	if ctx.Err() != nil {
		return
	}
	vu.record(result)

	switch {
	case result.Error != nil:
		vu.console.Warn("Warning: Homepage not accessible (%v)", result.Error)
	case result.StatusCode != http.StatusOK:
		vu.console.Warn("Warning: Homepage not accessible (status: %d)", result.StatusCode)
	default:
		return
	}
	vu.log.Warn("Health check failed", slog.Int("user", vu.ID), slog.Int("status", result.StatusCode), slog.Any("error", result.Error))
}

func (vu *VirtualUser) record(result *RequestResult) {
	failed := result.Failed()
	vu.metrics.RecordLatency(result.Duration, result.Name, !failed, result.BytesReceived)

	if failed {
		vu.tracker.Failure(result.Name, result.failure())
		return
	}
	vu.tracker.Success()
}

// executeRequest issues a GET for path and drains the body to count bytes.
func (vu *VirtualUser) executeRequest(ctx context.Context, path, name string) *RequestResult {
	result := &RequestResult{Name: name, Path: path}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, vu.baseURL+path, nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to build request: %w", err)
		return result
	}

	resp, err := vu.client.Do(req)
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	result.BytesReceived = n
	if err != nil {
		result.Error = fmt.Errorf("failed to read response body: %w", err)
	}

	vu.log.Debug("Request", slog.Int("user", vu.ID), slog.String("name", name),
		slog.Int("status", resp.StatusCode), slog.Duration("elapsed", result.Duration))

	return result
}

// applyThinkTime waits for the duration or until ctx is cancelled.
func (vu *VirtualUser) applyThinkTime(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
