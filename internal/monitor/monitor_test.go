package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/htmlbench/internal/common"
	"github.com/wesleyorama2/htmlbench/internal/jsonfile"
	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
)

type step struct {
	cpu float64
	mem float64
	err error
}

// scriptedReader replays steps, then cancels the run.
type scriptedReader struct {
	mu     sync.Mutex
	steps  []step
	next   int
	cancel context.CancelFunc
}

func (r *scriptedReader) Collect(ctx context.Context) (*sysstat.Sample, error) {
	r.mu.Lock()
	if r.next >= len(r.steps) {
		r.mu.Unlock()
		r.cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	st := r.steps[r.next]
	r.next++
	r.mu.Unlock()

	if st.err != nil {
		return nil, st.err
	}
	return testSample(st.cpu, st.mem), nil
}

func testSample(cpu, mem float64) *sysstat.Sample {
	return &sysstat.Sample{
		Timestamp: "2024-01-01T10:00:00.123456",
		Epoch:     1704103200.123456,
		CPU:       &sysstat.CPUStats{Percent: cpu, Count: 8},
		Memory:    &sysstat.MemoryStats{TotalGB: 15.5, Percent: mem},
		Disk:      &sysstat.DiskStats{TotalGB: 250, Percent: 42.5},
		Network:   &sysstat.NetworkStats{},
		Processes: &sysstat.ProcessStats{
			TotalCount: 120,
			TestRelated: []sysstat.ProcessInfo{
				{PID: 1, Name: "htmlbench"},
				{PID: 2, Name: "htmlbench"},
			},
		},
	}
}

func newTestSampler(t *testing.T, steps []step) (*Sampler, *bytes.Buffer, string, context.Context) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var buf bytes.Buffer
	console := output.NewConsole(output.ConsoleConfig{Writer: &buf, NoColor: true})
	path := filepath.Join(t.TempDir(), "system_monitor.json")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := New(&scriptedReader{steps: steps, cancel: cancel}, console, Config{
		Interval: time.Millisecond,
		Output:   path,
	}, log)
	return s, &buf, path, ctx
}

func TestSampler_RunPersistsAllSamples(t *testing.T) {
	s, buf, path, ctx := newTestSampler(t, []step{{cpu: 10, mem: 20}, {cpu: 50, mem: 40}, {cpu: 90, mem: 60}})

	assert.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Run(ctx))
	assert.Equal(t, StateStopped, s.State())

	var saved []sysstat.Sample
	require.NoError(t, jsonfile.Read(path, &saved))
	require.Len(t, saved, 3)
	assert.Equal(t, 90.0, saved[2].CPU.Percent)

	out := buf.String()
	assert.Contains(t, out, "Data saved to "+path)
	assert.Contains(t, out, "Total samples: 3")
	assert.Contains(t, out, "Average: 50.0%")
	assert.Contains(t, out, "Maximum: 90.0%")
	assert.Contains(t, out, "Minimum: 10.0%")
	assert.Contains(t, out, "CPU Cores: 8")
}

func TestSampler_ErrorSamplesAreRecordedAndExcluded(t *testing.T) {
	s, _, path, ctx := newTestSampler(t, []step{
		{cpu: 10, mem: 30},
		{err: errors.New("permission denied")},
		{cpu: 30, mem: 50},
	})

	require.NoError(t, s.Run(ctx))

	samples := s.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, "permission denied", samples[1].Error)
	assert.NotEmpty(t, samples[1].Timestamp)
	assert.Nil(t, samples[1].CPU)

	saved, err := LoadSamples(path)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	sum, err := Summarize(saved, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Samples)
	assert.Equal(t, 2, sum.Valid)
	assert.Equal(t, 20.0, sum.CPU.Avg)
	assert.Equal(t, 40.0, sum.Memory.Avg)
	assert.Equal(t, 2*time.Second, sum.Duration)
}

func TestSampler_RunTwice(t *testing.T) {
	s, _, _, ctx := newTestSampler(t, []step{{cpu: 1, mem: 1}})

	require.NoError(t, s.Run(ctx))
	assert.ErrorIs(t, s.Run(ctx), common.ErrSamplerStarted)
}

func TestSampler_NoSamplesWritesNothing(t *testing.T) {
	s, _, path, ctx := newTestSampler(t, nil)

	require.NoError(t, s.Run(ctx))

	_, err := LoadSamples(path)
	assert.ErrorIs(t, err, common.ErrSummaryNotFound)
}

func TestSummarize(t *testing.T) {
	samples := []sysstat.Sample{*testSample(10, 70), *testSample(50, 80), *testSample(90, 90)}

	sum, err := Summarize(samples, time.Second)
	require.NoError(t, err)

	assert.Equal(t, Stats{Avg: 50, Max: 90, Min: 10}, sum.CPU)
	assert.Equal(t, Stats{Avg: 80, Max: 90, Min: 70}, sum.Memory)
	assert.Equal(t, 3*time.Second, sum.Duration)
	assert.Equal(t, 8, sum.CPUCores)
	assert.Equal(t, 15.5, sum.TotalRAMGB)
	assert.Equal(t, 250.0, sum.TotalDiskGB)
}

func TestSummarize_OnlyErrors(t *testing.T) {
	_, err := Summarize([]sysstat.Sample{{Timestamp: "t", Error: "boom"}}, time.Second)
	assert.ErrorIs(t, err, common.ErrNoValidSamples)
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		pct  float64
		want Severity
	}{
		{0, SeverityNormal},
		{60, SeverityNormal},
		{60.1, SeverityMedium},
		{80, SeverityMedium},
		{80.1, SeverityHigh},
		{100, SeverityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityOf(tt.pct), "%.1f", tt.pct)
	}
}

func TestFormatLine(t *testing.T) {
	console := output.NewConsole(output.ConsoleConfig{Writer: io.Discard, NoColor: true})

	line := FormatLine(console, testSample(10, 65))
	assert.Equal(t, "2024-01-01T10:00:00 | CPU: ●  10.0% | MEM: ◆  65.0% | DISK:  42.5% | Test Processes: 2", line)

	line = FormatLine(console, testSample(85, 20))
	assert.Contains(t, line, "CPU: ▲  85.0%")

	line = FormatLine(console, &sysstat.Sample{Timestamp: "t", Error: "boom"})
	assert.Equal(t, "✗ Error: boom", line)
}

func TestShowSummary(t *testing.T) {
	var buf bytes.Buffer
	console := output.NewConsole(output.ConsoleConfig{Writer: &buf, NoColor: true})
	path := filepath.Join(t.TempDir(), "history.json")

	err := ShowSummary(console, path, time.Second)
	assert.ErrorIs(t, err, common.ErrSummaryNotFound)
	assert.Contains(t, buf.String(), "not found")

	buf.Reset()
	require.NoError(t, jsonfile.WriteAtomic(path, []sysstat.Sample{*testSample(10, 10), {Timestamp: "t", Error: "x"}, *testSample(30, 30)}))
	require.NoError(t, ShowSummary(console, path, 2*time.Second))
	assert.Contains(t, buf.String(), "MONITORING SUMMARY")
	assert.Contains(t, buf.String(), "Duration: 4 seconds")
	assert.Contains(t, buf.String(), "Average: 20.0%")
}

func TestShowSummary_NoValid(t *testing.T) {
	var buf bytes.Buffer
	console := output.NewConsole(output.ConsoleConfig{Writer: &buf, NoColor: true})
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, jsonfile.WriteAtomic(path, []sysstat.Sample{{Timestamp: "t", Error: "x"}}))

	require.NoError(t, ShowSummary(console, path, time.Second))
	assert.Contains(t, buf.String(), "No valid data collected")
}
