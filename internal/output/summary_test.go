package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

func sampleRun() *results.Report {
	return &results.Report{
		Suites: []*results.Suite{{
			Title: "ParaBank E2E UI Test Suite",
			Tests: []*results.Test{
				{Title: "journey", Status: results.OutcomeExpected, Results: []*results.Result{{Status: results.StatusPassed, Duration: 1234}}},
				{Title: "bill pay", Status: results.OutcomeFlaky, Results: []*results.Result{
					{Status: results.StatusFailed, Duration: 500, Error: &results.Error{Message: "first"}},
					{Status: results.StatusPassed, Duration: 500},
				}},
				{Title: "cleared session requires login", Status: results.OutcomeUnexpected, Results: []*results.Result{
					{Status: results.StatusTimedOut, Duration: 90000, Error: &results.Error{Message: "test timeout of 1m30s exceeded\nstack"}},
				}},
			},
		}},
		Errors: []results.Error{{Message: "run interrupted: context canceled"}},
		Stats:  results.Stats{Duration: 92234, Expected: 1, Unexpected: 1, Flaky: 1},
	}
}

func TestListReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lr := NewListReporter(&buf)
	for _, tc := range results.Collect(sampleRun().Suites) {
		lr.TestEnd(tc)
	}

	want := []string{
		"  ✓ journey (1.23s)",
		"  ! bill pay (1s, 2 attempts) flaky",
		"  ✘ cleared session requires login (1m30s)",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("lines = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriteSummary(&buf, sampleRun(), 40)
	out := buf.String()

	for _, want := range []string{
		"1 passed, 1 failed, 1 flaky (1m32.23s)",
		"Failures",
		"1) cleared session requires login",
		"test timeout of 1m30s exceeded",
		"run interrupted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stack") {
		t.Error("only the first error line should be shown")
	}
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 40 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
}

func TestWriteSummary_AllPassed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriteSummary(&buf, &results.Report{Stats: results.Stats{Expected: 3, Duration: 1500}}, 0)
	if got := strings.TrimSpace(buf.String()); got != "3 passed (1.5s)" {
		t.Errorf("summary = %q", got)
	}
}

func TestReportMarkdown(t *testing.T) {
	t.Parallel()

	body := "Title\n=====\n\nTotal: 1\nPassed: 1\n   - shot (image/png): a.png\n"
	want := "Title\n=====\n\nTotal: 1  \nPassed: 1  \n&nbsp;&nbsp;&nbsp;- shot (image/png): a.png  \n"
	if got := reportMarkdown(body); got != want {
		t.Errorf("reportMarkdown = %q, want %q", got, want)
	}
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	out, err := RenderReport("Report\n======\n\nPassed tests: 2\n", 80, false)
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	if !strings.Contains(out, "Report") || !strings.Contains(out, "Passed tests: 2") {
		t.Errorf("preview = %q", out)
	}
}

func TestWidth_NonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("buffer is not a terminal")
	}
	if Width(&buf) != DefaultWidth {
		t.Errorf("Width = %d", Width(&buf))
	}
}
