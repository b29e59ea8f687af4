package sysstat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector(nil)

	assert.Equal(t, DefaultCPUWindow, c.CPUWindow)
	assert.Equal(t, DefaultDiskPath, c.DiskPath)
	assert.Equal(t, DefaultProcessMatches, c.Matches)
}

func TestCollector_Match(t *testing.T) {
	c := NewCollector([]string{"Flask", " locust ", ""})

	tests := []struct {
		name string
		want bool
	}{
		{"flask", true},
		{"FLASK-worker", true},
		{"Locust", true},
		{"python3", false},
		{"nginx", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.name))
		})
	}
}

func TestSample_Failed(t *testing.T) {
	assert.True(t, (&Sample{Timestamp: "x", Error: "boom"}).Failed())
	assert.True(t, (&Sample{Timestamp: "x"}).Failed())
	assert.False(t, (&Sample{CPU: &CPUStats{}, Memory: &MemoryStats{}}).Failed())
}

func TestSample_ErrorRecordShape(t *testing.T) {
	data, err := json.Marshal(&Sample{Timestamp: "2024-01-01T00:00:00.000000", Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2024-01-01T00:00:00.000000","error":"boom"}`, string(data))
}

func TestCollector_Collect(t *testing.T) {
	if testing.Short() {
		t.Skip("reads live host counters")
	}

	c := NewCollector([]string{"go", "htmlbench"})
	c.CPUWindow = 50 * time.Millisecond

	s, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.False(t, s.Failed())
	assert.NotEmpty(t, s.Timestamp)
	assert.Greater(t, s.CPU.Count, 0)
	assert.Greater(t, s.Memory.TotalGB, 0.0)
	assert.Greater(t, s.Processes.TotalCount, 0)
	assert.NotNil(t, s.Processes.TestRelated)
}

func TestTakeSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("reads live host counters")
	}

	snap, err := TakeSnapshot(context.Background(), 50*time.Millisecond, DefaultDiskPath)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, snap.CPUPercent, 0.0)
	assert.Greater(t, snap.MemoryTotalGB, 0.0)
	assert.Greater(t, snap.Timestamp, 0.0)
}
