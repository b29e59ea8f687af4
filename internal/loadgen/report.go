package loadgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

// Report is the outcome of one run.
type Report struct {
	RunID    string
	Start    time.Time
	End      time.Time
	Duration time.Duration

	// TotalRequests counts successful requests only.
	TotalRequests int64
	Totals        Totals
}

// AverageRPS returns successful requests per second, and false when the
// run had no measurable duration.
func (r *Report) AverageRPS() (float64, bool) {
	secs := r.Duration.Seconds()
	if secs <= 0 {
		return 0, false
	}
	return float64(r.TotalRequests) / secs, true
}

// LatencySummary is the JSON form of LatencyStats, in milliseconds.
type LatencySummary struct {
	Count  int64   `json:"count"`
	MinMS  float64 `json:"min_ms"`
	MaxMS  float64 `json:"max_ms"`
	MeanMS float64 `json:"mean_ms"`
	P50MS  float64 `json:"p50_ms"`
	P90MS  float64 `json:"p90_ms"`
	P95MS  float64 `json:"p95_ms"`
	P99MS  float64 `json:"p99_ms"`
}

// TaskSummary is the JSON form of TaskStats.
type TaskSummary struct {
	Requests int64          `json:"requests"`
	Failures int64          `json:"failures"`
	Bytes    int64          `json:"bytes"`
	Latency  LatencySummary `json:"latency"`
}

func ms(d time.Duration) float64 {
	return util.Round2(float64(d) / float64(time.Millisecond))
}

func summarizeLatency(l LatencyStats) LatencySummary {
	return LatencySummary{
		Count:  l.Count,
		MinMS:  ms(l.Min),
		MaxMS:  ms(l.Max),
		MeanMS: ms(l.Mean),
		P50MS:  ms(l.P50),
		P90MS:  ms(l.P90),
		P95MS:  ms(l.P95),
		P99MS:  ms(l.P99),
	}
}

func summarizeTasks(tasks []TaskStats) map[string]TaskSummary {
	out := make(map[string]TaskSummary, len(tasks))
	for _, t := range tasks {
		out[t.Name] = TaskSummary{
			Requests: t.Requests,
			Failures: t.Failures,
			Bytes:    t.Bytes,
			Latency:  summarizeLatency(t.Latency),
		}
	}
	return out
}

func printStart(console *output.Console, cfg Config, runID string, profiles []*Profile, counts []int) {
	console.Banner("LOAD TEST STARTED")
	console.Field("Target", cfg.Host)
	console.Field("Users", cfg.Users)
	console.Field("Spawn Rate", fmt.Sprintf("%g/s", cfg.SpawnRate))
	if cfg.Duration > 0 {
		console.Field("Duration", output.FormatDuration(cfg.Duration))
	} else {
		console.Field("Duration", "until interrupted")
	}
	if cfg.MaxRPS > 0 {
		console.Field("Max RPS", fmt.Sprintf("%g", cfg.MaxRPS))
	}

	mix := make([]string, 0, len(profiles))
	for i, p := range profiles {
		mix = append(mix, fmt.Sprintf("%s=%d", p.Name, counts[i]))
	}
	console.Field("Profiles", strings.Join(mix, " "))
	console.Field("Run ID", runID)
	console.Rule()
}

func printStop(console *output.Console, r *Report) {
	console.Banner("LOAD TEST COMPLETED")
	console.Field("Duration", fmt.Sprintf("%.1f seconds", r.Duration.Seconds()))
	console.Field("Total Requests", r.TotalRequests)
	if rps, ok := r.AverageRPS(); ok {
		console.Field("Average RPS", fmt.Sprintf("%.2f", rps))
	} else {
		console.Field("Average RPS", "N/A")
	}
	console.Field("Failed Requests", r.Totals.Failed)
	console.Field("Data Received", output.FormatBytes(uint64(r.Totals.Bytes)))

	if r.Totals.Latency.Count > 0 {
		l := r.Totals.Latency
		console.Println()
		console.Println("Latency:")
		console.Field("min", output.FormatLatency(l.Min))
		console.Field("p50", output.FormatLatency(l.P50))
		console.Field("p90", output.FormatLatency(l.P90))
		console.Field("p95", output.FormatLatency(l.P95))
		console.Field("p99", output.FormatLatency(l.P99))
		console.Field("max", output.FormatLatency(l.Max))
	}

	if len(r.Totals.Tasks) > 0 {
		console.Println()
		console.Printf("  %-22s %9s %8s %9s %9s %10s\n", "Name", "Requests", "Fails", "p50", "p95", "Received")
		for _, t := range r.Totals.Tasks {
			console.Printf("  %-22s %9s %8s %9s %9s %10s\n",
				t.Name,
				output.FormatNumber(t.Requests),
				output.FormatNumber(t.Failures),
				output.FormatLatency(t.Latency.P50),
				output.FormatLatency(t.Latency.P95),
				output.FormatBytes(uint64(t.Bytes)))
		}
	}

	console.Rule()
}
