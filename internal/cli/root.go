// Package cli wires the parabank-qa commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/fixture"
	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
	"github.com/Dicklesworthstone/parabank-qa/internal/notify"
)

// ErrTestsFailed is returned by run when any test ended unexpectedly.
var ErrTestsFailed = errors.New("one or more tests failed")

// App holds the process-level dependencies of the commands.
type App struct {
	Out io.Writer
	Err io.Writer

	// NewFactory builds the per-attempt fixture factory. Defaults to Chrome.
	NewFactory func(cfg *config.Config, logger *log.Logger) fixture.Factory
	// EmailOptions are passed to the email channel.
	EmailOptions []notify.EmailOption

	configPath string
	logLevel   string
	logFormat  string
}

// NewApp returns an App writing to the process streams.
func NewApp() *App {
	return &App{
		Out:        os.Stdout,
		Err:        os.Stderr,
		NewFactory: fixture.ChromeFactory,
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "parabank-qa",
		Short: "End-to-end UI and API checks for ParaBank",
		Long: `parabank-qa drives a browser through the ParaBank demo bank, cross-checks
the REST API in the same session and reports the results.

Commands:
  run     Execute the test cases
  report  Render and send the results summary
  config  Show or initialise configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file (default ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "log format: text, json, logfmt")

	root.AddCommand(newRunCmd(app))
	root.AddCommand(newReportCmd(app))
	root.AddCommand(newConfigCmd(app))
	return root
}

// loadConfig resolves configuration, layering the persistent flags and
// overrides from the calling command.
func (a *App) loadConfig(overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if a.logLevel != "" {
		overrides["logging.level"] = a.logLevel
	}
	if a.logFormat != "" {
		overrides["logging.format"] = a.logFormat
	}
	return config.Load(config.LoadOptions{ConfigPath: a.configPath, FlagOverrides: overrides})
}

func (a *App) logger(cfg *config.Config) *log.Logger {
	opts := logging.FromConfig(cfg.Logging)
	opts.Output = a.Err
	return logging.New(opts)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	app := NewApp()
	root := NewRootCmd(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrTestsFailed) {
			fmt.Fprintln(app.Err, "Error:", err)
		}
		return 1
	}
	return 0
}
