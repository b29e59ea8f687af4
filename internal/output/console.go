// Package output renders console banners, status lines and summaries.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 60

// Console writes user-facing output. It is safe for concurrent use.
type Console struct {
	writer  io.Writer
	scheme  *ColorScheme
	noColor bool

	mu sync.Mutex
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	NoColor     bool
	ForceColors bool
}

// NewConsole creates a console. Colors are used only when the writer is a
// terminal and NO_COLOR is unset, unless ForceColors is given.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	useColors := !config.NoColor && (config.ForceColors || (isTerminal(config.Writer) && supportsColors()))

	scheme := NoColorScheme()
	if useColors {
		scheme = DefaultColorScheme()
		scheme.forceColors()
	}

	return &Console{
		writer:  config.Writer,
		scheme:  scheme,
		noColor: !useColors,
	}
}

// Scheme returns the active color scheme.
func (c *Console) Scheme() *ColorScheme {
	return c.scheme
}

// NoColor reports whether colors are disabled.
func (c *Console) NoColor() bool {
	return c.noColor
}

func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, a...)
}

func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, format, a...)
}

// Rule prints a horizontal separator.
func (c *Console) Rule() {
	c.Println(c.scheme.Rule.Sprint(strings.Repeat("=", ruleWidth)))
}

// Banner prints a title framed by separators.
func (c *Console) Banner(title string) {
	c.Rule()
	c.Println(c.scheme.Title.Sprint(title))
	c.Rule()
}

// Field prints an indented "label: value" line.
func (c *Console) Field(label string, value any) {
	c.Println(fmt.Sprintf("  %s %s", c.scheme.Label.Sprint(label+":"), c.scheme.Value.Sprint(value)))
}

func (c *Console) Success(format string, a ...any) {
	c.Println(SuccessIcon(c.noColor) + " " + fmt.Sprintf(format, a...))
}

func (c *Console) Info(format string, a ...any) {
	c.Println(InfoIcon(c.noColor) + " " + fmt.Sprintf(format, a...))
}

func (c *Console) Warn(format string, a ...any) {
	c.Println(WarningIcon(c.noColor) + " " + c.scheme.Warning.Sprintf(format, a...))
}

func (c *Console) Error(format string, a ...any) {
	c.Println(ErrorIcon(c.noColor) + " " + c.scheme.Error.Sprintf(format, a...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// FormatDuration formats a duration in a human-readable format.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// FormatLatency formats a request latency compactly.
func FormatLatency(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// FormatNumber formats a count with thousands separators.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes formats a byte count with binary units.
func FormatBytes(n uint64) string {
	return humanize.IBytes(n)
}
