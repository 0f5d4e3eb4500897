// Package config holds the explicit, validated configuration for a suite
// run and the report emitter.
// Precedence: defaults < config file (parabank-qa.toml) < environment < flags.
package config

import "time"

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "parabank-qa.toml"

// Config is the top-level configuration structure.
type Config struct {
	BaseURL  string         `mapstructure:"base_url"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Run      RunConfig      `mapstructure:"run"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Report   ReportConfig   `mapstructure:"report"`
	Notify   NotifyConfig   `mapstructure:"notify"`

	// sources records where non-default values came from: file, env or flag.
	sources map[string]string
}

// BrowserConfig selects and sizes the browser.
type BrowserConfig struct {
	Headless     bool   `mapstructure:"headless"`
	ExecPath     string `mapstructure:"exec_path"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	NoSandbox    bool   `mapstructure:"no_sandbox"`
}

// TimeoutsConfig bounds every wait in the suite.
type TimeoutsConfig struct {
	Action      time.Duration `mapstructure:"action"`
	Navigation  time.Duration `mapstructure:"navigation"`
	Test        time.Duration `mapstructure:"test"`
	Expect      time.Duration `mapstructure:"expect"`
	NetworkIdle time.Duration `mapstructure:"network_idle"`
	SettlePoll  time.Duration `mapstructure:"settle_poll"`
}

// RunConfig controls the runner.
type RunConfig struct {
	Retries     int      `mapstructure:"retries"`
	Workers     int      `mapstructure:"workers"`
	OutputDir   string   `mapstructure:"output_dir"`
	ResultsFile string   `mapstructure:"results_file"`
	Reporters   []string `mapstructure:"reporters"`
	Screenshot  string   `mapstructure:"screenshot"` // only-on-failure | on | off
	Trace       string   `mapstructure:"trace"`      // on-first-retry | on | off
	CaseFilter  string   `mapstructure:"case_filter"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"` // text | json | logfmt
	ReportCaller bool   `mapstructure:"report_caller"`
}

// ReportConfig configures the post-run report emitter.
type ReportConfig struct {
	ResultsPath      string `mapstructure:"results_path"`
	OutputPath       string `mapstructure:"output_path"`
	Subject          string `mapstructure:"subject"`
	GitHubServerURL  string `mapstructure:"github_server_url"`
	GitHubRepository string `mapstructure:"github_repository"`
	GitHubRunID      string `mapstructure:"github_run_id"`

	// Redact is off, warn or redact. Applied to the body before it is written.
	Redact string `mapstructure:"redact"`
}

// NotifyConfig lists the notification channels.
type NotifyConfig struct {
	Email   EmailConfig   `mapstructure:"email"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// EmailConfig configures delivery through Resend.
type EmailConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKey  string   `mapstructure:"api_key"`
	From    string   `mapstructure:"from"`
	To      []string `mapstructure:"to"`
}

// WebhookConfig configures a JSON webhook.
type WebhookConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Template string        `mapstructure:"template"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Default returns the built-in configuration for local runs.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     false,
			WindowWidth:  1280,
			WindowHeight: 720,
		},
		Timeouts: TimeoutsConfig{
			Action:      15 * time.Second,
			Navigation:  30 * time.Second,
			Test:        90 * time.Second,
			Expect:      10 * time.Second,
			NetworkIdle: 500 * time.Millisecond,
			SettlePoll:  250 * time.Millisecond,
		},
		Run: RunConfig{
			Retries:     0,
			Workers:     1,
			OutputDir:   "test-results",
			ResultsFile: "test-results.json",
			Reporters:   []string{"html", "list", "json"},
			Screenshot:  "only-on-failure",
			Trace:       "on-first-retry",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Report: ReportConfig{
			ResultsPath:      "test-results.json",
			OutputPath:       "email_body.txt",
			Subject:          "ParaBank E2E UI + API Test Results",
			GitHubServerURL:  "https://github.com",
			GitHubRepository: "unknown-repo",
			GitHubRunID:      "unknown-run-id",
			Redact:           "redact",
		},
		Notify: NotifyConfig{
			Email: EmailConfig{
				Enabled: true,
				From:    "onboarding@resend.dev",
			},
			Webhook: WebhookConfig{
				Timeout: 10 * time.Second,
			},
		},
	}
}

// CIDefault is Default adjusted for CI: headless with two retries.
func CIDefault() *Config {
	cfg := Default()
	cfg.Browser.Headless = true
	cfg.Run.Retries = 2
	return cfg
}

// Source reports where key's value came from: "default", "file", "env" or
// "flag".
func (c *Config) Source(key string) string {
	if s, ok := c.sources[key]; ok {
		return s
	}
	return "default"
}
