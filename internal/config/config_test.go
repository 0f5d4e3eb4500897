package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

// clearEnv blanks every bound variable so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CI", "")
	for _, b := range envBindings {
		t.Setenv(b.Env, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parabank-qa.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if err := Validate(CIDefault()); err != nil {
		t.Fatalf("CI default config invalid: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(LoadOptions{ConfigPath: writeConfig(t, "")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Browser.Headless {
		t.Error("headless should default to false outside CI")
	}
	if cfg.Run.Retries != 0 {
		t.Errorf("retries = %d, want 0", cfg.Run.Retries)
	}
	if cfg.Timeouts.Action != 15*time.Second || cfg.Timeouts.Navigation != 30*time.Second {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if got := strings.Join(cfg.Run.Reporters, ","); got != "html,list,json" {
		t.Errorf("reporters = %q", got)
	}
	if cfg.Notify.Email.From != "onboarding@resend.dev" {
		t.Errorf("from = %q", cfg.Notify.Email.From)
	}
}

func TestLoad_CIDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CI", "true")

	cfg, err := Load(LoadOptions{ConfigPath: writeConfig(t, "")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Browser.Headless || cfg.Run.Retries != 2 {
		t.Errorf("CI run: headless=%v retries=%d, want true/2", cfg.Browser.Headless, cfg.Run.Retries)
	}
	if got := cfg.Source("run.retries"); got != "ci" {
		t.Errorf("source = %q, want ci", got)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
base_url = "http://file.example/parabank/"

[timeouts]
action = "5s"

[run]
workers = 3
`)
	t.Setenv("BASE_URL", "http://env.example/parabank/")
	t.Setenv("EXPECT_TIMEOUT", "2500")
	t.Setenv("EMAIL_RECIPIENT", "a@example.com, b@example.com")

	cfg, err := Load(LoadOptions{
		ConfigPath:    path,
		FlagOverrides: map[string]any{"run.workers": 4},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseURL != "http://env.example/parabank/" {
		t.Errorf("base_url = %q, env should win over file", cfg.BaseURL)
	}
	if cfg.Timeouts.Action != 5*time.Second {
		t.Errorf("action = %v, want 5s from file", cfg.Timeouts.Action)
	}
	if cfg.Timeouts.Expect != 2500*time.Millisecond {
		t.Errorf("expect = %v, want 2.5s (bare ints are ms)", cfg.Timeouts.Expect)
	}
	if cfg.Run.Workers != 4 {
		t.Errorf("workers = %d, flag should win", cfg.Run.Workers)
	}
	if len(cfg.Notify.Email.To) != 2 || cfg.Notify.Email.To[1] != "b@example.com" {
		t.Errorf("to = %v", cfg.Notify.Email.To)
	}

	for key, want := range map[string]string{
		"base_url":        "env",
		"timeouts.action": "file",
		"run.workers":     "flag",
		"run.retries":     "default",
	} {
		if got := cfg.Source(key); got != want {
			t.Errorf("Source(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestLoad_BadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEADLESS", "maybe")

	_, err := Load(LoadOptions{ConfigPath: writeConfig(t, "")})
	if err == nil || !strings.Contains(err.Error(), "env HEADLESS") {
		t.Fatalf("expected HEADLESS parse error, got %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.BaseURL = "not a url"
	cfg.Run.Workers = 0
	cfg.Run.Screenshot = "sometimes"
	cfg.Logging.Format = "xml"
	cfg.Notify.Webhook.Enabled = true

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"base_url", "run.workers", "run.screenshot", "logging.format", "notify.webhook.url"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestRequireBaseURL(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if err := cfg.RequireBaseURL(); err == nil {
		t.Fatal("expected error without base_url")
	}
	cfg.BaseURL = "https://parabank.parasoft.com"
	if err := cfg.RequireBaseURL(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		raw     string
		want    any
		wantErr bool
	}{
		{"browser.headless", "true", true, false},
		{"run.retries", "3", 3, false},
		{"timeouts.test", "90s", 90 * time.Second, false},
		{"timeouts.test", "1500", 1500 * time.Millisecond, false},
		{"base_url", " http://x/ ", "http://x/", false},
		{"run.retries", "many", nil, true},
		{"nope", "1", nil, true},
	}
	for _, tc := range tests {
		got, err := ParseValue(tc.key, tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseValue(%s, %q) expected error", tc.key, tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseValue(%s, %q): %v", tc.key, tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseValue(%s, %q) = %v, want %v", tc.key, tc.raw, got, tc.want)
		}
	}
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultFile)

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("forced WriteDefault: %v", err)
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		t.Fatalf("decode written file: %v", err)
	}
	timeouts, ok := raw["timeouts"].(map[string]any)
	if !ok || timeouts["action"] != "15s" {
		t.Fatalf("timeouts table = %#v", raw["timeouts"])
	}

	cfg, err := Load(LoadOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load written default: %v", err)
	}
	if diffs := Diff(cfg); len(diffs) != 0 {
		t.Fatalf("written default differs from built-in: %+v", diffs)
	}
}

func TestNested_MasksSecrets(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Notify.Email.APIKey = "re_secret"

	email := cfg.Nested(true)["notify"].(map[string]any)["email"].(map[string]any)
	if email["api_key"] != "********" {
		t.Errorf("api_key = %v, want masked", email["api_key"])
	}
	email = cfg.Nested(false)["notify"].(map[string]any)["email"].(map[string]any)
	if email["api_key"] != "re_secret" {
		t.Errorf("unmasked api_key = %v", email["api_key"])
	}
}

func TestLoad_ExpandsHomePaths(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OUTPUT_DIR", "~/artifacts")

	cfg, err := Load(LoadOptions{ConfigPath: writeConfig(t, "[report]\noutput_path = \"~/email_body.txt\"\n")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.OutputDir != filepath.Join(home, "artifacts") {
		t.Errorf("output_dir = %q", cfg.Run.OutputDir)
	}
	if cfg.Report.OutputPath != filepath.Join(home, "email_body.txt") {
		t.Errorf("output_path = %q", cfg.Report.OutputPath)
	}
}

func TestReportDefaults_IgnoresBrokenSettings(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BASE_URL", "parabank.parasoft.com")
	t.Setenv("REPORT_REDACT", "bogus")
	t.Setenv("EMAIL_BODY_PATH", "~/body.txt")
	t.Setenv("GITHUB_REPOSITORY", "acme/bank")
	t.Setenv("GITHUB_RUN_ID", "42")

	if _, err := Load(LoadOptions{ConfigPath: writeConfig(t, "")}); err == nil {
		t.Fatal("Load accepted a relative base_url and unknown redact mode")
	}

	rc := ReportDefaults()
	if rc.OutputPath != filepath.Join(home, "body.txt") {
		t.Errorf("output_path = %q", rc.OutputPath)
	}
	if rc.GitHubRepository != "acme/bank" || rc.GitHubRunID != "42" {
		t.Errorf("run = %q/%q", rc.GitHubRepository, rc.GitHubRunID)
	}
	if want := Default().Report.ResultsPath; rc.ResultsPath != want {
		t.Errorf("results_path = %q, want default %q", rc.ResultsPath, want)
	}
	if rc.Redact != Default().Report.Redact {
		t.Errorf("redact = %q, want the default", rc.Redact)
	}
}
