package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks the configuration for semantic errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("base_url %q must be an absolute http(s) URL", cfg.BaseURL))
		} else if !oneOf(u.Scheme, "http", "https") {
			errs = append(errs, "base_url scheme must be http or https")
		}
	}

	if cfg.Browser.WindowWidth <= 0 || cfg.Browser.WindowHeight <= 0 {
		errs = append(errs, "browser.window_width and browser.window_height must be > 0")
	}

	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("timeouts.%s must be > 0", name))
		}
	}
	positive("action", cfg.Timeouts.Action)
	positive("navigation", cfg.Timeouts.Navigation)
	positive("test", cfg.Timeouts.Test)
	positive("expect", cfg.Timeouts.Expect)
	positive("network_idle", cfg.Timeouts.NetworkIdle)
	positive("settle_poll", cfg.Timeouts.SettlePoll)

	if cfg.Run.Retries < 0 {
		errs = append(errs, "run.retries cannot be negative")
	}
	if cfg.Run.Workers < 1 {
		errs = append(errs, "run.workers must be >= 1")
	}
	if cfg.Run.ResultsFile == "" {
		errs = append(errs, "run.results_file is required")
	}
	for _, r := range cfg.Run.Reporters {
		if !oneOf(r, "html", "list", "json", "prometheus") {
			errs = append(errs, fmt.Sprintf("run.reporters: unknown reporter %q (want html|list|json|prometheus)", r))
		}
	}
	if !oneOf(cfg.Run.Screenshot, "only-on-failure", "on", "off") {
		errs = append(errs, "run.screenshot must be one of only-on-failure|on|off")
	}
	if !oneOf(cfg.Run.Trace, "on-first-retry", "on", "off") {
		errs = append(errs, "run.trace must be one of on-first-retry|on|off")
	}

	if !oneOf(strings.ToLower(cfg.Logging.Level), "debug", "info", "warn", "error") {
		errs = append(errs, "logging.level must be one of debug|info|warn|error")
	}
	if !oneOf(cfg.Logging.Format, "text", "json", "logfmt") {
		errs = append(errs, "logging.format must be one of text|json|logfmt")
	}

	if cfg.Report.ResultsPath == "" || cfg.Report.OutputPath == "" {
		errs = append(errs, "report.results_path and report.output_path are required")
	}
	if !oneOf(cfg.Report.Redact, "off", "warn", "redact") {
		errs = append(errs, "report.redact must be one of off|warn|redact")
	}

	if cfg.Notify.Webhook.Enabled && cfg.Notify.Webhook.URL == "" {
		errs = append(errs, "notify.webhook.url is required when the webhook is enabled")
	}
	if cfg.Notify.Webhook.Timeout <= 0 {
		errs = append(errs, "notify.webhook.timeout must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireBaseURL fails when no base URL is configured. Only suite runs need one.
func (c *Config) RequireBaseURL() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url is required: set BASE_URL or base_url in %s", DefaultFile)
	}
	return nil
}

func oneOf(val string, options ...string) bool {
	for _, opt := range options {
		if val == opt {
			return true
		}
	}
	return false
}
