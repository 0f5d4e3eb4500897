package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	opts := FromConfig(config.LoggingConfig{Level: "info", Format: "json"})
	opts.Output = &buf
	opts.Prefix = "runner"

	logger := New(opts)
	logger.Debug("hidden")
	logger.Info("case finished", "case", "login", "status", "passed")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line leaked at info level: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, line)
	}
	if entry["msg"] != "case finished" || entry["case"] != "login" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["prefix"] != "runner" {
		t.Errorf("prefix = %v", entry["prefix"])
	}
}

func TestNew_LogfmtFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "logfmt", Output: &buf})
	logger.Debug("poll", "attempt", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=poll") || !strings.Contains(out, "attempt=3") {
		t.Errorf("unexpected logfmt output: %q", out)
	}
}
