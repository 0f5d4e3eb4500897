package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
	"github.com/Dicklesworthstone/parabank-qa/internal/notify"
	"github.com/Dicklesworthstone/parabank-qa/internal/output"
	"github.com/Dicklesworthstone/parabank-qa/internal/redaction"
	"github.com/Dicklesworthstone/parabank-qa/internal/report"
	"github.com/Dicklesworthstone/parabank-qa/internal/util"
)

type reportOptions struct {
	resultsPath string
	outputPath  string
	noSend      bool
	preview     bool
}

func newReportCmd(app *App) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the results summary and send it",
		Long: `Render the results artifact into a plain-text summary, write it to --output
and send it through the configured channels (Resend email, webhook).

When the results or the configuration cannot be read a short failure note
is written instead. Neither that nor a delivery failure changes the exit code.`,
		Example: `  parabank-qa report
  parabank-qa report --results test-results.json --no-send --preview`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("results") {
				overrides["report.results_path"] = opts.resultsPath
			}
			if cmd.Flags().Changed("output") {
				overrides["report.output_path"] = opts.outputPath
			}
			cfg, err := app.loadConfig(overrides)
			if err != nil {
				return app.reportWithoutConfig(cmd, opts, err)
			}
			logger := app.logger(cfg)
			mode, err := redaction.ParseMode(cfg.Report.Redact)
			if err != nil {
				return err
			}

			em := &report.Emitter{
				ResultsPath: cfg.Report.ResultsPath,
				OutputPath:  cfg.Report.OutputPath,
				Subject:     cfg.Report.Subject,
				Run:         report.RunInfoFromConfig(cfg.Report),
				Redact:      mode,
				Logger:      logger,
			}
			if !opts.noSend {
				n, err := notify.FromConfig(cfg.Notify, logger, app.EmailOptions...)
				if err != nil {
					logger.Warn("notifications disabled", "err", err)
				} else {
					em.Sender = n
				}
			}

			res, err := em.Emit(cmd.Context())
			if err != nil {
				return err
			}
			if opts.preview {
				out := app.Out
				rendered, err := output.RenderReport(res.Body, output.Width(out), output.IsTerminal(out))
				if err != nil {
					return fmt.Errorf("preview: %w", err)
				}
				fmt.Fprint(out, rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.resultsPath, "results", "", "results artifact to read (env RESULTS_PATH)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "where to write the summary (env EMAIL_BODY_PATH)")
	cmd.Flags().BoolVar(&opts.noSend, "no-send", false, "write the summary without sending it")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print a rendered preview of the summary")
	return cmd
}

// reportWithoutConfig writes the failure note when the configuration itself
// does not load. Only the report paths and the GitHub run env are honoured.
func (a *App) reportWithoutConfig(cmd *cobra.Command, opts reportOptions, cause error) error {
	rc := config.ReportDefaults()
	if cmd.Flags().Changed("results") {
		rc.ResultsPath = util.ExpandPath(opts.resultsPath)
	}
	if cmd.Flags().Changed("output") {
		rc.OutputPath = util.ExpandPath(opts.outputPath)
	}
	lopts := logging.FromConfig(config.Default().Logging)
	lopts.Output = a.Err
	em := &report.Emitter{
		ResultsPath: rc.ResultsPath,
		OutputPath:  rc.OutputPath,
		Run:         report.RunInfoFromConfig(rc),
		Logger:      logging.New(lopts),
	}
	_, err := em.Fail(fmt.Errorf("load config: %w", cause))
	return err
}
