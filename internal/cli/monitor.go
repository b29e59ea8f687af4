package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/htmlbench/internal/monitor"
	"github.com/wesleyorama2/htmlbench/internal/sysstat"
)

func newMonitorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Sample CPU, memory, disk, network and process usage",
		Long: `Print one resource line per interval until interrupted, then save the
sample history and print a summary.

  htmlbench monitor -i 0.5 -o run1.json
  htmlbench monitor --summary-only -o run1.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMonitor(cmd)
		},
	}

	flags := cmd.Flags()
	flags.Float64P("interval", "i", 0, "seconds between samples (default 1.0)")
	flags.StringP("output", "o", "", "sample history file (default system_monitor.json)")
	flags.Bool("summary-only", false, "print the summary of an existing history file and exit")
	flags.StringSlice("match", nil, "process name substrings to report (default htmlbench,python,flask,locust)")

	return cmd
}

func (a *app) runMonitor(cmd *cobra.Command) error {
	flags := cmd.Flags()
	mc := &a.cfg.Monitor

	if flags.Changed("interval") {
		secs, _ := flags.GetFloat64("interval")
		if secs <= 0 {
			return fmt.Errorf("interval must be positive, got %g", secs)
		}
		mc.Interval = time.Duration(secs * float64(time.Second))
	}
	if flags.Changed("output") {
		mc.Output, _ = flags.GetString("output")
	}
	if flags.Changed("match") {
		mc.Matches, _ = flags.GetStringSlice("match")
	}
	if err := a.validate(); err != nil {
		return err
	}

	if summaryOnly, _ := flags.GetBool("summary-only"); summaryOnly {
		return monitor.ShowSummary(a.console, mc.Output, mc.Interval)
	}

	sampler := monitor.New(sysstat.NewCollector(mc.Matches), a.console, monitor.Config{
		Interval: mc.Interval,
		Output:   mc.Output,
	}, a.log)
	return sampler.Run(cmd.Context())
}
