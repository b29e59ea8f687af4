// Package sysstat reads host CPU, memory, disk, network and process
// counters.
package sysstat

// Sample is one resource reading. When Error is set the reading failed and
// only Timestamp is meaningful.
type Sample struct {
	Timestamp string        `json:"timestamp"`
	Epoch     float64       `json:"epoch,omitempty"`
	CPU       *CPUStats     `json:"cpu,omitempty"`
	Memory    *MemoryStats  `json:"memory,omitempty"`
	Disk      *DiskStats    `json:"disk,omitempty"`
	Network   *NetworkStats `json:"network,omitempty"`
	Processes *ProcessStats `json:"processes,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the sample is an error record.
func (s *Sample) Failed() bool {
	return s.Error != "" || s.CPU == nil || s.Memory == nil
}

type CPUStats struct {
	Percent      float64  `json:"percent"`
	Count        int      `json:"count"`
	FrequencyMHz *float64 `json:"frequency_mhz"`
}

type MemoryStats struct {
	TotalGB     float64 `json:"total_gb"`
	AvailableGB float64 `json:"available_gb"`
	UsedGB      float64 `json:"used_gb"`
	Percent     float64 `json:"percent"`
	SwapPercent float64 `json:"swap_percent"`
}

type DiskStats struct {
	TotalGB float64 `json:"total_gb"`
	FreeGB  float64 `json:"free_gb"`
	UsedGB  float64 `json:"used_gb"`
	Percent float64 `json:"percent"`
}

type NetworkStats struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

type ProcessStats struct {
	TotalCount  int           `json:"total_count"`
	TestRelated []ProcessInfo `json:"test_related"`
}

type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// Snapshot is the compact reading attached to load test summaries.
type Snapshot struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryPercent     float64 `json:"memory_percent"`
	MemoryAvailableGB float64 `json:"memory_available_gb"`
	MemoryTotalGB     float64 `json:"memory_total_gb"`
	DiskPercent       float64 `json:"disk_percent"`
	Timestamp         float64 `json:"timestamp"`
}
