package config

import "time"

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindDuration
	kindStringSlice
)

// field binds a dotted key to its place in Config.
type field struct {
	key  string
	kind valueKind
	get  func(*Config) any
}

// fields lists every configurable key in display order.
var fields = []field{
	{"base_url", kindString, func(c *Config) any { return c.BaseURL }},

	{"browser.headless", kindBool, func(c *Config) any { return c.Browser.Headless }},
	{"browser.exec_path", kindString, func(c *Config) any { return c.Browser.ExecPath }},
	{"browser.window_width", kindInt, func(c *Config) any { return c.Browser.WindowWidth }},
	{"browser.window_height", kindInt, func(c *Config) any { return c.Browser.WindowHeight }},
	{"browser.no_sandbox", kindBool, func(c *Config) any { return c.Browser.NoSandbox }},

	{"timeouts.action", kindDuration, func(c *Config) any { return c.Timeouts.Action }},
	{"timeouts.navigation", kindDuration, func(c *Config) any { return c.Timeouts.Navigation }},
	{"timeouts.test", kindDuration, func(c *Config) any { return c.Timeouts.Test }},
	{"timeouts.expect", kindDuration, func(c *Config) any { return c.Timeouts.Expect }},
	{"timeouts.network_idle", kindDuration, func(c *Config) any { return c.Timeouts.NetworkIdle }},
	{"timeouts.settle_poll", kindDuration, func(c *Config) any { return c.Timeouts.SettlePoll }},

	{"run.retries", kindInt, func(c *Config) any { return c.Run.Retries }},
	{"run.workers", kindInt, func(c *Config) any { return c.Run.Workers }},
	{"run.output_dir", kindString, func(c *Config) any { return c.Run.OutputDir }},
	{"run.results_file", kindString, func(c *Config) any { return c.Run.ResultsFile }},
	{"run.reporters", kindStringSlice, func(c *Config) any { return c.Run.Reporters }},
	{"run.screenshot", kindString, func(c *Config) any { return c.Run.Screenshot }},
	{"run.trace", kindString, func(c *Config) any { return c.Run.Trace }},
	{"run.case_filter", kindString, func(c *Config) any { return c.Run.CaseFilter }},

	{"logging.level", kindString, func(c *Config) any { return c.Logging.Level }},
	{"logging.format", kindString, func(c *Config) any { return c.Logging.Format }},
	{"logging.report_caller", kindBool, func(c *Config) any { return c.Logging.ReportCaller }},

	{"report.results_path", kindString, func(c *Config) any { return c.Report.ResultsPath }},
	{"report.output_path", kindString, func(c *Config) any { return c.Report.OutputPath }},
	{"report.subject", kindString, func(c *Config) any { return c.Report.Subject }},
	{"report.github_server_url", kindString, func(c *Config) any { return c.Report.GitHubServerURL }},
	{"report.github_repository", kindString, func(c *Config) any { return c.Report.GitHubRepository }},
	{"report.github_run_id", kindString, func(c *Config) any { return c.Report.GitHubRunID }},
	{"report.redact", kindString, func(c *Config) any { return c.Report.Redact }},

	{"notify.email.enabled", kindBool, func(c *Config) any { return c.Notify.Email.Enabled }},
	{"notify.email.api_key", kindString, func(c *Config) any { return c.Notify.Email.APIKey }},
	{"notify.email.from", kindString, func(c *Config) any { return c.Notify.Email.From }},
	{"notify.email.to", kindStringSlice, func(c *Config) any { return c.Notify.Email.To }},
	{"notify.webhook.enabled", kindBool, func(c *Config) any { return c.Notify.Webhook.Enabled }},
	{"notify.webhook.url", kindString, func(c *Config) any { return c.Notify.Webhook.URL }},
	{"notify.webhook.template", kindString, func(c *Config) any { return c.Notify.Webhook.Template }},
	{"notify.webhook.timeout", kindDuration, func(c *Config) any { return c.Notify.Webhook.Timeout }},
}

// secretKeys are masked when displayed.
var secretKeys = map[string]bool{
	"notify.email.api_key": true,
}

// envBindings map environment variables onto keys. CI conventions
// (BASE_URL, HEADLESS, RESEND_API_KEY, GITHUB_*) are honoured as-is.
var envBindings = []struct {
	Env string
	Key string
}{
	{"BASE_URL", "base_url"},

	{"HEADLESS", "browser.headless"},
	{"CHROME_PATH", "browser.exec_path"},
	{"CHROME_NO_SANDBOX", "browser.no_sandbox"},

	{"ACTION_TIMEOUT", "timeouts.action"},
	{"NAVIGATION_TIMEOUT", "timeouts.navigation"},
	{"TEST_TIMEOUT", "timeouts.test"},
	{"EXPECT_TIMEOUT", "timeouts.expect"},

	{"RETRIES", "run.retries"},
	{"WORKERS", "run.workers"},
	{"OUTPUT_DIR", "run.output_dir"},

	{"LOG_LEVEL", "logging.level"},
	{"LOG_FORMAT", "logging.format"},

	{"RESULTS_PATH", "report.results_path"},
	{"EMAIL_BODY_PATH", "report.output_path"},
	{"GITHUB_SERVER_URL", "report.github_server_url"},
	{"GITHUB_REPOSITORY", "report.github_repository"},
	{"GITHUB_RUN_ID", "report.github_run_id"},
	{"REPORT_REDACT", "report.redact"},

	{"RESEND_API_KEY", "notify.email.api_key"},
	{"EMAIL_FROM", "notify.email.from"},
	{"EMAIL_RECIPIENT", "notify.email.to"},
	{"WEBHOOK_URL", "notify.webhook.url"},
}

func kindOf(key string) (valueKind, bool) {
	for _, f := range fields {
		if f.key == key {
			return f.kind, true
		}
	}
	return 0, false
}

// Get returns the value at a dotted key.
func (c *Config) Get(key string) (any, bool) {
	for _, f := range fields {
		if f.key == key {
			return f.get(c), true
		}
	}
	return nil, false
}

// Keys lists every configurable key.
func Keys() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.key
	}
	return out
}

// EnvVars lists the environment variables that override configuration.
func EnvVars() []string {
	out := make([]string, len(envBindings))
	for i, b := range envBindings {
		out[i] = b.Env
	}
	return out
}

func displayValue(key string, v any) any {
	if secretKeys[key] {
		if s, _ := v.(string); s != "" {
			return "********"
		}
	}
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}
