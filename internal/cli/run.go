package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/journey"
	"github.com/Dicklesworthstone/parabank-qa/internal/output"
	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

const (
	htmlReportDir  = "html-report"
	prometheusFile = "metrics.prom"
)

type runOptions struct {
	baseURL   string
	headless  bool
	retries   int
	workers   int
	reporters []string
	filter    string
	list      bool
}

func newRunCmd(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ParaBank test cases",
		Long: `Run the ParaBank test cases against --base-url.

Each case gets a fresh browser. Failed attempts are retried up to --retries
times; a case that passes on retry is reported as flaky. The command exits 1
when any case ends unexpectedly.`,
		Example: `  parabank-qa run --base-url https://parabank.parasoft.com
  parabank-qa run --headless --retries 2 --reporter list,json
  parabank-qa run --case 'cleared session' --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			flags := cmd.Flags()
			if flags.Changed("base-url") {
				overrides["base_url"] = opts.baseURL
			}
			if flags.Changed("headless") {
				overrides["browser.headless"] = opts.headless
			}
			if flags.Changed("retries") {
				overrides["run.retries"] = opts.retries
			}
			if flags.Changed("workers") {
				overrides["run.workers"] = opts.workers
			}
			if flags.Changed("reporter") {
				overrides["run.reporters"] = opts.reporters
			}
			if flags.Changed("case") {
				overrides["run.case_filter"] = opts.filter
			}
			return app.runCases(cmd, overrides, opts.list)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "ParaBank origin, e.g. https://parabank.parasoft.com (env BASE_URL)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run the browser without a window (default on in CI)")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "retries per failing case (default 2 in CI)")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "cases run in parallel")
	cmd.Flags().StringSliceVar(&opts.reporters, "reporter", nil, "reporters: html, list, json, prometheus")
	cmd.Flags().StringVar(&opts.filter, "case", "", "only run cases whose title matches this regexp")
	cmd.Flags().BoolVar(&opts.list, "list", false, "list the selected cases and exit")
	return cmd
}

func (a *App) runCases(cmd *cobra.Command, overrides map[string]any, listOnly bool) error {
	cfg, err := a.loadConfig(overrides)
	if err != nil {
		return err
	}
	cases := journey.Cases()

	if listOnly {
		selected, err := journey.Filter(cases, cfg.Run.CaseFilter)
		if err != nil {
			return err
		}
		fmt.Fprint(a.Out, journey.Describe(selected))
		return nil
	}
	if err := cfg.RequireBaseURL(); err != nil {
		return err
	}

	logger := a.logger(cfg)
	reporters := cfg.Run.Reporters
	runnerOpts := []journey.RunnerOption{journey.WithLogger(logger)}
	if slices.Contains(reporters, "list") {
		runnerOpts = append(runnerOpts, journey.WithTestEnd(output.NewListReporter(a.Out).TestEnd))
	}

	runner := journey.NewRunner(cfg, a.NewFactory(cfg, logger), runnerOpts...)
	rep, err := runner.Run(cmd.Context(), cases)
	if err != nil {
		return err
	}

	if err := writeReporters(cfg, rep, logger.Info); err != nil {
		return err
	}
	if slices.Contains(reporters, "list") {
		output.WriteSummary(a.Out, rep, output.Width(a.Out))
	}
	if rep.Stats.Unexpected > 0 || len(rep.Errors) > 0 {
		return ErrTestsFailed
	}
	return nil
}

func writeReporters(cfg *config.Config, rep *results.Report, info func(msg any, keyvals ...any)) error {
	for _, name := range cfg.Run.Reporters {
		switch name {
		case "json":
			if err := results.Write(cfg.Run.ResultsFile, rep); err != nil {
				return err
			}
			info("results written", "path", cfg.Run.ResultsFile)
		case "html":
			path, err := results.WriteHTML(filepath.Join(cfg.Run.OutputDir, htmlReportDir), rep)
			if err != nil {
				return err
			}
			info("html report written", "path", path)
		case "prometheus":
			if err := os.MkdirAll(cfg.Run.OutputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(cfg.Run.OutputDir, prometheusFile)
			if err := os.WriteFile(path, []byte(results.ExportPrometheus(rep)), 0o644); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			info("metrics written", "path", path)
		}
	}
	return nil
}
