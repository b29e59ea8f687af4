package loadgen

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/wesleyorama2/htmlbench/internal/output"
)

// HTTPClientConfig contains HTTP client configuration.
type HTTPClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
}

// DefaultHTTPClientConfig returns sensible defaults for load testing.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewHTTPClient builds the client shared by all users.
func NewHTTPClient(cfg HTTPClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableKeepAlives:   cfg.DisableKeepAlives,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// Scheduler spawns users at a fixed rate and waits for them to finish.
type Scheduler struct {
	baseURL  string
	profiles []*Profile
	client   *http.Client
	metrics  *Metrics
	tracker  *Tracker
	limiter  *rate.Limiter
	console  *output.Console
	log      *slog.Logger

	nextID atomic.Int32
	active atomic.Int32

	usersMu sync.Mutex
	users   []*VirtualUser

	wg sync.WaitGroup
}

// SpawnOrder interleaves profile indexes so that every profile is
// represented early during ramp-up. counts is the output of Allocate.
func SpawnOrder(counts []int) []int {
	remaining := append([]int(nil), counts...)
	var order []int
	for {
		added := false
		for i := range remaining {
			if remaining[i] > 0 {
				order = append(order, i)
				remaining[i]--
				added = true
			}
		}
		if !added {
			return order
		}
	}
}

// Run spawns users (spawnRate per second) until the order is exhausted or
// ctx is cancelled, then blocks until every user has stopped.
func (s *Scheduler) Run(ctx context.Context, counts []int, spawnRate float64) {
	order := SpawnOrder(counts)

	// Rates too high to express as a tick interval spawn everyone at once.
	var tick <-chan time.Time
	if interval := time.Duration(float64(time.Second) / spawnRate); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

spawn:
	for i, idx := range order {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				break spawn
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			break
		}
		s.spawn(ctx, s.profiles[idx])
	}

	s.log.Info("Spawning finished", slog.Int("users", s.ActiveUsers()))
	s.wg.Wait()
	s.client.CloseIdleConnections()
}

func (s *Scheduler) spawn(ctx context.Context, p *Profile) *VirtualUser {
	id := int(s.nextID.Add(1))
	vu := &VirtualUser{
		ID:      id,
		Profile: p,
		baseURL: s.baseURL,
		client:  s.client,
		metrics: s.metrics,
		tracker: s.tracker,
		limiter: s.limiter,
		console: s.console,
		log:     s.log,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), uint64(id))),
	}

	s.usersMu.Lock()
	s.users = append(s.users, vu)
	s.usersMu.Unlock()

	s.wg.Add(1)
	s.active.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		vu.Run(ctx)
	}()

	s.log.Debug("User spawned", slog.Int("user", id), slog.String("profile", p.Name))
	return vu
}

// ActiveUsers returns the number of running users.
func (s *Scheduler) ActiveUsers() int {
	return int(s.active.Load())
}

// Users returns the users spawned so far.
func (s *Scheduler) Users() []*VirtualUser {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return append([]*VirtualUser(nil), s.users...)
}
