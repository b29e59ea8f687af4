package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColorSchemes(t *testing.T) {
	for name, scheme := range map[string]*ColorScheme{
		"default":  DefaultColorScheme(),
		"no-color": NoColorScheme(),
	} {
		t.Run(name, func(t *testing.T) {
			for i, c := range scheme.all() {
				assert.NotNil(t, c, "color %d", i)
			}
		})
	}
}

func TestNoColorScheme_PlainText(t *testing.T) {
	scheme := NoColorScheme()
	assert.Equal(t, "hello", scheme.Error.Sprint("hello"))
	assert.Equal(t, "hello", scheme.Success.Sprint("hello"))
}

func TestConsole_NonTerminalHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf})

	assert.True(t, c.NoColor())

	c.Banner("LOAD TEST STARTED")
	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, strings.Repeat("=", ruleWidth)+"\nLOAD TEST STARTED\n")
}

func TestConsole_ForceColors(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, ForceColors: true})

	assert.False(t, c.NoColor())
	c.Error("failed %d", 3)
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "failed 3")
}

func TestConsole_Messages(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleConfig{Writer: &buf, NoColor: true})

	c.Success("saved %s", "x.json")
	c.Warn("careful")
	c.Info("note")
	c.Field("Duration", "3.0s")

	assert.Equal(t, "✓ saved x.json\n⚠ careful\nℹ note\n  Duration: 3.0s\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3h 04m 05s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "0ms", FormatLatency(0))
	assert.Equal(t, "250µs", FormatLatency(250*time.Microsecond))
	assert.Equal(t, "12ms", FormatLatency(12*time.Millisecond))
	assert.Equal(t, "1.50s", FormatLatency(1500*time.Millisecond))
}

func TestFormatNumberAndBytes(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "10 KiB", FormatBytes(10*1024))
}
