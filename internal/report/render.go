// Package report turns a results artifact into the plain-text CI summary and
// hands it to the notification channels.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

// Title heads every report.
const Title = "ParaBank UI + API Test Execution Report"

const (
	errorLines = 3
	wrapWidth  = 120
)

// RunInfo locates the CI run that produced the results.
type RunInfo struct {
	ServerURL  string
	Repository string
	RunID      string
}

// RunInfoFromConfig reads the GitHub settings, applying the defaults for
// anything unset.
func RunInfoFromConfig(cfg config.ReportConfig) RunInfo {
	info := RunInfo{
		ServerURL:  cfg.GitHubServerURL,
		Repository: cfg.GitHubRepository,
		RunID:      cfg.GitHubRunID,
	}
	if info.ServerURL == "" {
		info.ServerURL = "https://github.com"
	}
	if info.Repository == "" {
		info.Repository = "unknown-repo"
	}
	if info.RunID == "" {
		info.RunID = "unknown-run-id"
	}
	return info
}

// RunURL links the Actions run.
func (r RunInfo) RunURL() string {
	return fmt.Sprintf("%s/%s/actions/runs/%s", strings.TrimRight(r.ServerURL, "/"), r.Repository, r.RunID)
}

// ArtifactURL links the run's artifacts section.
func (r RunInfo) ArtifactURL() string {
	return r.RunURL() + "#artifacts"
}

// Render formats the report body.
func Render(rep *results.Report, run RunInfo) string {
	var b strings.Builder
	stats := rep.Stats

	b.WriteString(Title + "\n")
	b.WriteString(strings.Repeat("=", len(Title)) + "\n\n")
	fmt.Fprintf(&b, "Total tests executed: %d\n", stats.Total())
	fmt.Fprintf(&b, "Passed tests: %d\n", stats.Expected)
	fmt.Fprintf(&b, "Failed tests: %d\n", stats.Unexpected)
	fmt.Fprintf(&b, "Flaky tests: %d\n", stats.Flaky)
	fmt.Fprintf(&b, "Skipped tests: %d\n\n", stats.Skipped)

	tests := results.Collect(rep.Suites)

	if stats.Unexpected > 0 {
		b.WriteString("FAILED TESTS DETAILS\n")
		b.WriteString("--------------------\n")
		for _, t := range tests {
			failed := failedAttempts(t)
			if len(failed) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n❌ %s\n", t.Title)
			for _, r := range failed {
				if r.Error != nil && r.Error.Message != "" {
					fmt.Fprintf(&b, "   Error: %s\n", errorExcerpt(r.Error.Message))
				}
				if len(r.Attachments) > 0 {
					b.WriteString("   Attachments:\n")
					for _, a := range r.Attachments {
						fmt.Fprintf(&b, "   - %s (%s): %s\n", a.Name, a.ContentType, attachmentRef(a))
					}
				}
			}
		}
		b.WriteString("\nFull logs, screenshots, and traces are available in the CI artifacts:\n")
		b.WriteString(run.ArtifactURL() + "\n")
	} else {
		b.WriteString("✅ All tests passed successfully!\n")
	}

	var retried []*results.Test
	flaky := 0
	for _, t := range tests {
		if len(t.Results) > 1 {
			retried = append(retried, t)
		}
		if t.Status == results.OutcomeFlaky {
			flaky++
		}
	}

	if len(retried) > 0 || flaky > 0 {
		b.WriteString("\nRETRIES & FLAKY TESTS SUMMARY\n")
		b.WriteString("-----------------------------\n")
		for _, t := range retried {
			final := t.Results[len(t.Results)-1].Status
			fmt.Fprintf(&b, "%s %s — %d attempt(s)\n", retryLabel(t.Status, final), t.Title, len(t.Results))
			for i, r := range t.Results {
				fmt.Fprintf(&b, "   Attempt %d: %s (%.1fs)\n", i+1, r.Status, r.Duration/1000)
			}
		}
	} else {
		b.WriteString("\nNo retries or flaky tests detected.\n")
	}

	fmt.Fprintf(&b, "\nView the full GitHub Actions Run: %s\n", run.RunURL())
	return b.String()
}

// Fallback is written when the report cannot be produced.
func Fallback(err error, run RunInfo) string {
	return fmt.Sprintf("Failed to generate email report. Error: %v\nView the GitHub Actions Run here: %s", err, run.RunURL())
}

func failedAttempts(t *results.Test) []*results.Result {
	var out []*results.Result
	for _, r := range t.Results {
		if r != nil && (r.Status == results.StatusFailed || r.Status == results.StatusTimedOut) {
			out = append(out, r)
		}
	}
	return out
}

// errorExcerpt keeps the first lines of msg without terminal colour codes,
// wrapping any overlong line.
func errorExcerpt(msg string) string {
	lines := strings.Split(ansi.Strip(msg), "\n")
	if len(lines) > errorLines {
		lines = lines[:errorLines]
	}
	for i, l := range lines {
		if len(l) > wrapWidth {
			lines[i] = wordwrap.String(l, wrapWidth)
		}
	}
	return strings.Join(lines, "\n")
}

func attachmentRef(a results.Attachment) string {
	switch {
	case a.Path != "":
		return a.Path
	case a.Body != "":
		return a.Body
	default:
		return "N/A"
	}
}

func retryLabel(outcome results.Outcome, final results.Status) string {
	switch {
	case outcome == results.OutcomeFlaky:
		return "⚠️  FLAKY"
	case final == results.StatusPassed:
		return "🔄 RETRIED (passed)"
	default:
		return "❌ RETRIED (failed)"
	}
}
