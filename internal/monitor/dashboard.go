package monitor

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/wesleyorama2/htmlbench/internal/output"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
)

// Severity grades a utilization percentage.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityMedium
	SeverityHigh
)

const (
	highThreshold   = 80.0
	mediumThreshold = 60.0
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "normal"
	}
}

// SeverityOf returns high above 80%, medium above 60%, normal otherwise.
func SeverityOf(pct float64) Severity {
	switch {
	case pct > highThreshold:
		return SeverityHigh
	case pct > mediumThreshold:
		return SeverityMedium
	default:
		return SeverityNormal
	}
}

// Marker is the glyph shown next to a graded value. Glyphs differ per level
// so severity stays readable without colors.
func Marker(console *output.Console, sev Severity) string {
	scheme := console.Scheme()

	var glyph string
	var c *color.Color
	switch sev {
	case SeverityHigh:
		glyph, c = "▲", scheme.Error
	case SeverityMedium:
		glyph, c = "◆", scheme.Warning
	default:
		glyph, c = "●", scheme.Success
	}
	return c.Sprint(glyph)
}

// FormatLine renders the one-line dashboard entry for a sample.
func FormatLine(console *output.Console, s *sysstat.Sample) string {
	if s.Failed() {
		msg := s.Error
		if msg == "" {
			msg = "incomplete sample"
		}
		return fmt.Sprintf("%s Error: %s", output.ErrorIcon(console.NoColor()), msg)
	}

	ts := s.Timestamp
	if len(ts) > 19 {
		ts = ts[:19]
	}

	disk := 0.0
	if s.Disk != nil {
		disk = s.Disk.Percent
	}
	procs := 0
	if s.Processes != nil {
		procs = len(s.Processes.TestRelated)
	}

	return fmt.Sprintf("%s | CPU: %s %5.1f%% | MEM: %s %5.1f%% | DISK: %5.1f%% | Test Processes: %d",
		ts,
		Marker(console, SeverityOf(s.CPU.Percent)), s.CPU.Percent,
		Marker(console, SeverityOf(s.Memory.Percent)), s.Memory.Percent,
		disk,
		procs)
}
