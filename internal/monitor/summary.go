package monitor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/wesleyorama2/htmlbench/internal/common"
	"github.com/wesleyorama2/htmlbench/internal/jsonfile"
	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
)

// Stats is the mean, maximum and minimum of a series.
type Stats struct {
	Avg float64
	Max float64
	Min float64
}

// Summary aggregates a sample history. Error records are excluded.
type Summary struct {
	Samples  int
	Valid    int
	Duration time.Duration
	CPU      Stats
	Memory   Stats

	CPUCores    int
	TotalRAMGB  float64
	TotalDiskGB float64
}

// Summarize computes statistics over the non-error samples. Duration is the
// number of valid samples times interval.
func Summarize(samples []sysstat.Sample, interval time.Duration) (*Summary, error) {
	var cpu, mem []float64
	var last *sysstat.Sample

	for i := range samples {
		s := &samples[i]
		if s.Failed() {
			continue
		}
		cpu = append(cpu, s.CPU.Percent)
		mem = append(mem, s.Memory.Percent)
		last = s
	}

	if last == nil {
		return nil, common.ErrNoValidSamples
	}

	sum := &Summary{
		Samples:  len(samples),
		Valid:    len(cpu),
		Duration: time.Duration(len(cpu)) * interval,
		CPU:      statsOf(cpu),
		Memory:   statsOf(mem),
		CPUCores: last.CPU.Count,
	}
	sum.TotalRAMGB = last.Memory.TotalGB
	if last.Disk != nil {
		sum.TotalDiskGB = last.Disk.TotalGB
	}

	return sum, nil
}

func statsOf(values []float64) Stats {
	st := Stats{Max: math.Inf(-1), Min: math.Inf(1)}
	total := 0.0
	for _, v := range values {
		total += v
		st.Max = math.Max(st.Max, v)
		st.Min = math.Min(st.Min, v)
	}
	st.Avg = total / float64(len(values))
	return st
}

// PrintSummary prints the monitoring summary for samples.
func PrintSummary(console *output.Console, samples []sysstat.Sample, interval time.Duration) {
	if len(samples) == 0 {
		return
	}

	console.Println()
	console.Banner("MONITORING SUMMARY")

	sum, err := Summarize(samples, interval)
	if err != nil {
		console.Error("No valid data collected")
		return
	}

	console.Field("Duration", fmt.Sprintf("%g seconds", sum.Duration.Seconds()))
	console.Field("Samples", sum.Valid)
	console.Println()
	console.Println("CPU Usage:")
	printStats(console, sum.CPU)
	console.Println()
	console.Println("Memory Usage:")
	printStats(console, sum.Memory)
	console.Println()
	console.Println("System Info:")
	console.Field("CPU Cores", sum.CPUCores)
	console.Field("Total RAM", fmt.Sprintf("%g GB", sum.TotalRAMGB))
	console.Field("Total Disk", fmt.Sprintf("%g GB", sum.TotalDiskGB))
	console.Rule()
}

func printStats(console *output.Console, st Stats) {
	console.Field("Average", fmt.Sprintf("%.1f%%", st.Avg))
	console.Field("Maximum", fmt.Sprintf("%.1f%%", st.Max))
	console.Field("Minimum", fmt.Sprintf("%.1f%%", st.Min))
}

// LoadSamples reads a saved sample history.
func LoadSamples(path string) ([]sysstat.Sample, error) {
	var samples []sysstat.Sample
	if err := jsonfile.Read(path, &samples); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrSummaryNotFound, path)
		}
		return nil, err
	}
	return samples, nil
}

// ShowSummary loads a saved history and prints its summary without sampling.
func ShowSummary(console *output.Console, path string, interval time.Duration) error {
	samples, err := LoadSamples(path)
	if err != nil {
		if errors.Is(err, common.ErrSummaryNotFound) {
			console.Error("File %s not found", path)
		} else {
			console.Error("Error loading file: %v", err)
		}
		return err
	}

	PrintSummary(console, samples, interval)
	return nil
}
