package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/htmlbench/internal/config"
	"github.com/wesleyorama2/htmlbench/internal/output"
)

var version = "0.1.0"

// app holds the state shared by all subcommands once the root command's
// pre-run hook has resolved the configuration.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg     *config.Config
	log     *slog.Logger
	console *output.Console
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "htmlbench",
		Short:   "HTML file server, load generator and resource monitor",
		Version: version,
		Long: `htmlbench serves fixed-size HTML files over HTTP, drives weighted
simulated users against them and samples host resources while a test runs.

  htmlbench generate            create the five test files
  htmlbench serve               start the file server on :5000
  htmlbench load --users 50     run a load test against it
  htmlbench monitor             sample CPU, memory, disk and network`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newLoadCmd(a))
	cmd.AddCommand(newMonitorCmd(a))
	cmd.AddCommand(newGenerateCmd(a))

	return cmd
}

// setup loads .env, the config file and environment overrides, then builds
// the logger and console.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
	}

	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.console = output.NewConsole(output.ConsoleConfig{Writer: cmd.OutOrStdout(), NoColor: a.noColor})
	return nil
}

// validate re-checks the configuration after flag overrides.
func (a *app) validate() error {
	if errs := config.ValidateConfig(a.cfg); len(errs) > 0 {
		return errs
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so that long-running commands can stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
