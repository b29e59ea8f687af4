package loadgen

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Metrics aggregates request outcomes with HDR histograms. It is safe for
// concurrent use: counters are atomic, histograms are mutex protected.
type Metrics struct {
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	tasks   map[string]*taskMetrics
	tasksMu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	totalBytes      atomic.Int64
}

type taskMetrics struct {
	hist     *hdrhistogram.Histogram
	requests int64
	failures int64
	bytes    int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencyHist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		tasks:       make(map[string]*taskMetrics),
	}
}

// RecordLatency records one request under name.
func (m *Metrics) RecordLatency(duration time.Duration, name string, success bool, bytes int64) {
	latencyMicros := duration.Microseconds()
	if latencyMicros < histogramMin {
		latencyMicros = histogramMin
	}
	if latencyMicros > histogramMax {
		latencyMicros = histogramMax
	}

	m.latencyHistMu.Lock()
	m.latencyHist.RecordValue(latencyMicros)
	m.latencyHistMu.Unlock()

	m.tasksMu.Lock()
	tm, ok := m.tasks[name]
	if !ok {
		tm = &taskMetrics{hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)}
		m.tasks[name] = tm
	}
	tm.hist.RecordValue(latencyMicros)
	tm.requests++
	tm.bytes += bytes
	if !success {
		tm.failures++
	}
	m.tasksMu.Unlock()

	m.totalRequests.Add(1)
	m.totalBytes.Add(bytes)
	if success {
		m.successRequests.Add(1)
	} else {
		m.failedRequests.Add(1)
	}
}

// LatencyStats summarizes a latency distribution.
type LatencyStats struct {
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P95   time.Duration
	P99   time.Duration
	Count int64
}

func latencyStats(h *hdrhistogram.Histogram) LatencyStats {
	if h.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Count: h.TotalCount(),
	}
}

// TaskStats is the per-name breakdown.
type TaskStats struct {
	Name     string
	Requests int64
	Failures int64
	Bytes    int64
	Latency  LatencyStats
}

// Totals is a point-in-time view of all metrics.
type Totals struct {
	Requests int64
	Success  int64
	Failed   int64
	Bytes    int64
	Latency  LatencyStats
	Tasks    []TaskStats
}

// Snapshot returns the current totals. Tasks are sorted by name.
func (m *Metrics) Snapshot() Totals {
	m.latencyHistMu.Lock()
	overall := latencyStats(m.latencyHist)
	m.latencyHistMu.Unlock()

	m.tasksMu.Lock()
	tasks := make([]TaskStats, 0, len(m.tasks))
	for name, tm := range m.tasks {
		tasks = append(tasks, TaskStats{
			Name:     name,
			Requests: tm.requests,
			Failures: tm.failures,
			Bytes:    tm.bytes,
			Latency:  latencyStats(tm.hist),
		})
	}
	m.tasksMu.Unlock()

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	return Totals{
		Requests: m.totalRequests.Load(),
		Success:  m.successRequests.Load(),
		Failed:   m.failedRequests.Load(),
		Bytes:    m.totalBytes.Load(),
		Latency:  overall,
		Tasks:    tasks,
	}
}
