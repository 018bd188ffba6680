package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/pretrain-smoke/internal/config"
	"github.com/zjy-dev/pretrain-smoke/internal/logger"
	"github.com/zjy-dev/pretrain-smoke/internal/report"
	"github.com/zjy-dev/pretrain-smoke/internal/smoke"
)

// ErrCheckFailed is returned when the script ran but its output failed the oracle.
var ErrCheckFailed = errors.New("smoke check failed")

// NewRunCommand creates the "run" subcommand.
func NewRunCommand(configName *string) *cobra.Command {
	var (
		executable      string
		workDir         string
		timeout         time.Duration
		tempCorpus      bool
		requireZeroExit bool
		reportDir       string
		noColor         bool
		logLevel        string
	)

	cmd := &cobra.Command{
		Use:   "run [-- script-args...]",
		Short: "Build the corpus, run the pretraining script and check its output.",
		Long: `Run the smoke check once:
  1. Write the synthetic corpus (default "a b c d" x 1000) to
     gutenberg/data/repeated_sequence.txt
  2. Run the pretraining script (default: python pretraining_simple.py --debug true)
  3. Pass if stdout contains "Maximum GPU memory allocated"

Exit status is 0 on pass and 1 on failure or when the script could not run.

Configuration:
  Defaults are loaded from configs/<config>.yaml under the 'config' key.
  SMOKE_CONFIG_* environment variables and command line flags override them.

Examples:
  # Run with defaults
  pretrain-smoke run

  # Use a scratch directory that is removed afterwards
  pretrain-smoke run --temp-corpus

  # Stricter check with a report
  pretrain-smoke run --require-zero-exit --timeout 10m --report-dir reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configName)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Command line flags override config values
			flags := cmd.Flags()
			if flags.Changed("executable") {
				cfg.Run.Executable = executable
			}
			if flags.Changed("work-dir") {
				cfg.Run.WorkDir = workDir
			}
			if flags.Changed("timeout") {
				cfg.Run.Timeout = timeout
			}
			if flags.Changed("temp-corpus") {
				cfg.Corpus.Temp = tempCorpus
			}
			if flags.Changed("require-zero-exit") {
				cfg.Oracle.RequireZeroExit = requireZeroExit
			}
			if flags.Changed("report-dir") {
				cfg.ReportDir = reportDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if len(args) > 0 {
				cfg.Run.Args = args
			}

			if err := setupLogger(cfg, noColor); err != nil {
				return err
			}
			defer logger.Close()
			logger.Debug("Config: corpus=%+v run=%+v oracle=%+v", cfg.Corpus, cfg.Run, cfg.Oracle)

			runner, err := smoke.NewRunnerFromConfig(cfg, logger.Default())
			if err != nil {
				return err
			}

			out, runErr := runner.Run(cmd.Context())

			if cfg.ReportDir != "" {
				saveReport(report.NewMarkdownReporter(cfg.ReportDir), out, runErr)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", report.Status(out, runErr))
			if runErr != nil {
				return runErr
			}
			if !out.Passed() {
				return fmt.Errorf("%w: %s", ErrCheckFailed, out.Verdict.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&executable, "executable", "", "Executable to run (overrides config)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Working directory for the script (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the script after this long, 0 disables (overrides config)")
	cmd.Flags().BoolVar(&tempCorpus, "temp-corpus", false, "Build the corpus in a temp directory removed after the run")
	cmd.Flags().BoolVar(&requireZeroExit, "require-zero-exit", false, "Fail when the script exits non-zero even if the line is present")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Write a markdown report to this directory")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// saveReport never fails the run; a report that cannot be written is logged.
func saveReport(r report.Reporter, out *smoke.Outcome, runErr error) {
	path, err := r.Save(out, runErr)
	if err != nil {
		logger.Warn("Failed to save report: %v", err)
		return
	}
	logger.Info("Report saved to %s", path)
}

func setupLogger(cfg *config.Config, noColor bool) error {
	logger.Init(cfg.LogLevel)
	logger.SetLevel(cfg.LogLevel)
	if noColor {
		logger.SetColorEnable(false)
	}
	if cfg.LogDir != "" {
		if err := logger.InitWithFile(cfg.LogLevel, cfg.LogDir); err != nil {
			return err
		}
		logger.Info("Logging to %s", logger.GetLogFilePath())
	}
	return nil
}
