package sysstat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/wesleyorama2/htmlbench/internal/util"
)

const (
	DefaultCPUWindow = time.Second
	DefaultDiskPath  = "/"
)

// DefaultProcessMatches are the process name fragments that identify the
// benchmark stack.
var DefaultProcessMatches = []string{"htmlbench", "python", "flask", "locust"}

// Collector gathers full Samples from the host.
type Collector struct {
	// CPUWindow is how long the CPU percentage measurement blocks.
	CPUWindow time.Duration
	DiskPath  string
	// Matches are case-insensitive substrings of process names to report.
	Matches []string

	now func() time.Time
}

func NewCollector(matches []string) *Collector {
	if len(matches) == 0 {
		matches = DefaultProcessMatches
	}
	lowered := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}

	return &Collector{
		CPUWindow: DefaultCPUWindow,
		DiskPath:  DefaultDiskPath,
		Matches:   lowered,
		now:       time.Now,
	}
}

// Collect reads every counter once. The call blocks for CPUWindow.
func (c *Collector) Collect(ctx context.Context) (*Sample, error) {
	cpuPercent, err := cpuPercent(ctx, c.CPUWindow)
	if err != nil {
		return nil, err
	}

	// Timestamp after the CPU window so it marks the end of the measurement.
	ts := c.now()

	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cannot count cpus: %w", err)
	}

	var freq *float64
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].Mhz > 0 {
		mhz := infos[0].Mhz
		freq = &mhz
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read memory: %w", err)
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read swap: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, c.DiskPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read disk usage of %s: %w", c.DiskPath, err)
	}

	netStats, err := networkTotals(ctx)
	if err != nil {
		return nil, err
	}

	procs, err := c.processes(ctx)
	if err != nil {
		return nil, err
	}

	return &Sample{
		Timestamp: util.ISOTime(ts),
		Epoch:     util.Epoch(ts),
		CPU: &CPUStats{
			Percent:      cpuPercent,
			Count:        count,
			FrequencyMHz: freq,
		},
		Memory: &MemoryStats{
			TotalGB:     util.GB(vm.Total),
			AvailableGB: util.GB(vm.Available),
			UsedGB:      util.GB(vm.Used),
			Percent:     util.Round2(vm.UsedPercent),
			SwapPercent: util.Round2(swap.UsedPercent),
		},
		Disk: &DiskStats{
			TotalGB: util.GB(du.Total),
			FreeGB:  util.GB(du.Free),
			UsedGB:  util.GB(du.Used),
			Percent: util.Round2(du.UsedPercent),
		},
		Network:   netStats,
		Processes: procs,
	}, nil
}

// Match reports whether a process name contains one of the configured
// fragments, ignoring case.
func (c *Collector) Match(name string) bool {
	name = strings.ToLower(name)
	for _, m := range c.Matches {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func (c *Collector) processes(ctx context.Context) (*ProcessStats, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list pids: %w", err)
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot list processes: %w", err)
	}

	related := make([]ProcessInfo, 0)
	for _, p := range procs {
		// Processes can exit or deny access between listing and reading.
		name, err := p.NameWithContext(ctx)
		if err != nil || !c.Match(name) {
			continue
		}
		cpuPct, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		memPct, err := p.MemoryPercentWithContext(ctx)
		if err != nil {
			continue
		}

		related = append(related, ProcessInfo{
			PID:           p.Pid,
			Name:          name,
			CPUPercent:    util.Round2(cpuPct),
			MemoryPercent: util.Round2(float64(memPct)),
		})
	}

	return &ProcessStats{
		TotalCount:  len(pids),
		TestRelated: related,
	}, nil
}

func cpuPercent(ctx context.Context, window time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, fmt.Errorf("cannot read cpu percent: %w", err)
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("cannot read cpu percent: no data")
	}
	return util.Round2(pcts[0]), nil
}

func networkTotals(ctx context.Context) (*NetworkStats, error) {
	counters, err := gnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("cannot read network counters: %w", err)
	}

	var n NetworkStats
	for _, c := range counters {
		n.BytesSent += c.BytesSent
		n.BytesRecv += c.BytesRecv
		n.PacketsSent += c.PacketsSent
		n.PacketsRecv += c.PacketsRecv
	}
	return &n, nil
}

// TakeSnapshot reads the compact CPU, memory and disk view used by load
// test summaries. CPU is measured over window.
func TakeSnapshot(ctx context.Context, window time.Duration, diskPath string) (*Snapshot, error) {
	cpuPct, err := cpuPercent(ctx, window)
	if err != nil {
		return nil, err
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read memory: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read disk usage of %s: %w", diskPath, err)
	}

	return &Snapshot{
		CPUPercent:        cpuPct,
		MemoryPercent:     util.Round2(vm.UsedPercent),
		MemoryAvailableGB: util.GB(vm.Available),
		MemoryTotalGB:     util.GB(vm.Total),
		DiskPercent:       util.Round2(du.UsedPercent),
		Timestamp:         util.Epoch(time.Now()),
	}, nil
}
