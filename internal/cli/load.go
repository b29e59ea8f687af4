package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/htmlbench/internal/loadgen"
)

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run a load test against the HTML file server",
		Long: `Spawn weighted simulated users against the file server and record the
run in a JSON summary file. Without --duration the test runs until
interrupted.

  htmlbench load --host http://localhost:5000 --users 50 --spawn-rate 5 --duration 2m
  htmlbench load --profiles profiles.yaml --max-rps 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringP("host", "H", "", "base URL of the file server (default http://localhost:5000)")
	flags.IntP("users", "u", 0, "number of simulated users (default 10)")
	flags.Float64P("spawn-rate", "r", 0, "users started per second (default 1)")
	flags.DurationP("duration", "t", 0, "run time, 0 runs until interrupted")
	flags.Float64("max-rps", 0, "global request rate limit, 0 disables it")
	flags.Duration("timeout", 0, "per-request timeout (default 30s)")
	flags.String("profiles", "", "YAML or JSON file replacing the built-in user profiles")
	flags.Int64("target", 0, "announce once when this many requests have succeeded")
	flags.StringP("output", "o", "", "run summary file (default load_test_info.json)")
	flags.String("html", "", "also write an HTML report to this path")
	flags.Bool("no-preflight", false, "skip the /api/status and /api/info checks")

	return cmd
}

func (a *app) runLoad(cmd *cobra.Command) error {
	flags := cmd.Flags()
	lc := &a.cfg.Load

	if flags.Changed("host") {
		lc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("users") {
		lc.Users, _ = flags.GetInt("users")
	}
	if flags.Changed("spawn-rate") {
		lc.SpawnRate, _ = flags.GetFloat64("spawn-rate")
	}
	if flags.Changed("duration") {
		lc.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("max-rps") {
		lc.MaxRPS, _ = flags.GetFloat64("max-rps")
	}
	if flags.Changed("timeout") {
		lc.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("profiles") {
		lc.Profiles, _ = flags.GetString("profiles")
	}
	if flags.Changed("output") {
		lc.Output, _ = flags.GetString("output")
	}
	if noPreflight, _ := flags.GetBool("no-preflight"); noPreflight {
		lc.Preflight = false
	}
	if err := a.validate(); err != nil {
		return err
	}

	var profiles []*loadgen.Profile
	if lc.Profiles != "" {
		var err error
		if profiles, err = loadgen.LoadProfiles(lc.Profiles); err != nil {
			return err
		}
	}

	target, _ := flags.GetInt64("target")
	htmlReport, _ := flags.GetString("html")

	httpCfg := loadgen.DefaultHTTPClientConfig()
	if lc.Timeout > 0 {
		httpCfg.Timeout = lc.Timeout
	}

	runner, err := loadgen.NewRunner(loadgen.Config{
		Host:       lc.Host,
		Users:      lc.Users,
		SpawnRate:  lc.SpawnRate,
		Duration:   lc.Duration,
		MaxRPS:     lc.MaxRPS,
		Target:     target,
		Output:     lc.Output,
		HTMLReport: htmlReport,
		Preflight:  lc.Preflight,
		HTTP:       httpCfg,
	}, profiles, a.console, a.log)
	if err != nil {
		return err
	}

	_, err = runner.Run(cmd.Context())
	return err
}
