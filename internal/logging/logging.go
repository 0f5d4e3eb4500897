// Package logging builds the structured loggers shared by every component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Format is text, json or logfmt
	Format string
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// ReportCaller adds file:line to log entries
	ReportCaller bool
}

// FromConfig derives Options from the logging section.
func FromConfig(cfg config.LoggingConfig) Options {
	return Options{
		Level:        cfg.Level,
		Format:       cfg.Format,
		ReportCaller: cfg.ReportCaller,
	}
}

// ParseLevel converts a string level to log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New creates a logger with the given options.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		Formatter:       formatter(opts.Format),
		TimeFormat:      time.RFC3339,
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: true,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
