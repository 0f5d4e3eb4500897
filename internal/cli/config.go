package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	var format string
	var diff bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, environment
variables and flags are applied. Secrets are masked.

With --diff only the keys that differ from the defaults are shown, along with
where each value came from.

Environment variables: ` + strings.Join(config.EnvVars(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(nil)
			if err != nil {
				return err
			}
			var v any = cfg.Nested(true)
			if diff {
				entries := config.Diff(cfg)
				if format == "" {
					return writeDiffTable(app, entries)
				}
				v = entries
			}
			data, err := encodeAs(format, v)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: toml, yaml, json (default toml, or a table with --diff)")
	cmd.Flags().BoolVar(&diff, "diff", false, "only show values that differ from the defaults")
	return cmd
}

func encodeAs(format string, v any) ([]byte, error) {
	switch format {
	case "", "toml":
		var buf bytes.Buffer
		if entries, ok := v.([]config.DiffEntry); ok {
			v = map[string]any{"diff": entries}
		}
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml":
		return yaml.Marshal(v)
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use toml, yaml or json)", format)
	}
}

func writeDiffTable(app *App, entries []config.DiffEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(app.Out, "No changes from defaults.")
		return nil
	}
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tDEFAULT\tCURRENT\tSOURCE\n")
	fmt.Fprintf(w, "---\t-------\t-------\t------\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%v\t%v\t%s\n", e.Key, e.Default, e.Current, e.Source)
	}
	return w.Flush()
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
