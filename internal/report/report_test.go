package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/notify"
	"github.com/Dicklesworthstone/parabank-qa/internal/redaction"
	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

var run = RunInfo{ServerURL: "https://github.com", Repository: "acme/parabank-qa", RunID: "42"}

func passingReport() *results.Report {
	return &results.Report{
		Suites: []*results.Suite{{
			Title: "ParaBank E2E UI Test Suite",
			Tests: []*results.Test{
				{Title: "journey", Status: results.OutcomeExpected, Results: []*results.Result{{Status: results.StatusPassed, Duration: 4200}}},
			},
		}},
		Stats: results.Stats{Expected: 1},
	}
}

func failingReport() *results.Report {
	return &results.Report{
		Suites: []*results.Suite{{
			Title: "ParaBank E2E UI Test Suite",
			Suites: []*results.Suite{{
				Tests: []*results.Test{
					{Title: "transfer", Status: results.OutcomeUnexpected, Results: []*results.Result{
						{Status: results.StatusFailed, Duration: 3000,
							Error:       &results.Error{Message: "\x1b[31mexpected visible\x1b[39m\nline two\nline three\nline four"},
							Attachments: []results.Attachment{{Name: "screenshot", ContentType: "image/png", Path: "test-results/t/test-failed-1.png"}}},
						{Status: results.StatusTimedOut, Duration: 1500,
							Attachments: []results.Attachment{{Name: "note", ContentType: "text/plain", Body: "inline"}, {Name: "empty", ContentType: "text/plain"}}},
					}},
					{Title: "bill pay", Status: results.OutcomeFlaky, Results: []*results.Result{
						{Status: results.StatusFailed, Duration: 1000},
						{Status: results.StatusPassed, Duration: 2049},
					}},
				},
			}},
		}},
		Stats: results.Stats{Unexpected: 1, Flaky: 1},
	}
}

func TestRunInfo(t *testing.T) {
	t.Parallel()

	if got := run.RunURL(); got != "https://github.com/acme/parabank-qa/actions/runs/42" {
		t.Errorf("RunURL = %q", got)
	}
	if got := run.ArtifactURL(); !strings.HasSuffix(got, "/runs/42#artifacts") {
		t.Errorf("ArtifactURL = %q", got)
	}

	info := RunInfoFromConfig(config.ReportConfig{})
	if got := info.RunURL(); got != "https://github.com/unknown-repo/actions/runs/unknown-run-id" {
		t.Errorf("default RunURL = %q", got)
	}
}

func TestRender_AllPassed(t *testing.T) {
	t.Parallel()

	want := Title + "\n" +
		strings.Repeat("=", len(Title)) + "\n\n" +
		"Total tests executed: 1\n" +
		"Passed tests: 1\n" +
		"Failed tests: 0\n" +
		"Flaky tests: 0\n" +
		"Skipped tests: 0\n\n" +
		"✅ All tests passed successfully!\n" +
		"\nNo retries or flaky tests detected.\n" +
		"\nView the full GitHub Actions Run: https://github.com/acme/parabank-qa/actions/runs/42\n"

	if got := Render(passingReport(), run); got != want {
		t.Errorf("Render mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_Failures(t *testing.T) {
	t.Parallel()

	got := Render(failingReport(), run)
	for _, want := range []string{
		"Total tests executed: 2\n",
		"Failed tests: 1\n",
		"FAILED TESTS DETAILS\n--------------------\n",
		"\n❌ transfer\n",
		"   Error: expected visible\nline two\nline three\n",
		"   Attachments:\n   - screenshot (image/png): test-results/t/test-failed-1.png\n",
		"   - note (text/plain): inline\n",
		"   - empty (text/plain): N/A\n",
		"\n❌ bill pay\n",
		"available in the CI artifacts:\nhttps://github.com/acme/parabank-qa/actions/runs/42#artifacts\n",
		"RETRIES & FLAKY TESTS SUMMARY\n-----------------------------\n",
		"❌ RETRIED (failed) transfer — 2 attempt(s)\n   Attempt 1: failed (3.0s)\n   Attempt 2: timedOut (1.5s)\n",
		"⚠️  FLAKY bill pay — 2 attempt(s)\n   Attempt 1: failed (1.0s)\n   Attempt 2: passed (2.0s)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}
	for _, bad := range []string{"line four", "\x1b[", "All tests passed"} {
		if strings.Contains(got, bad) {
			t.Errorf("report should not contain %q", bad)
		}
	}
}

func TestRender_RetriedPassed(t *testing.T) {
	t.Parallel()

	rep := passingReport()
	rep.Suites[0].Tests[0].Results = []*results.Result{
		{Status: results.StatusPassed, Duration: 100},
		{Status: results.StatusPassed, Duration: 100},
	}
	if got := Render(rep, run); !strings.Contains(got, "🔄 RETRIED (passed) journey — 2 attempt(s)\n") {
		t.Errorf("missing retried label:\n%s", got)
	}
}

func TestErrorExcerpt_WrapsLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 60)
	got := errorExcerpt(long)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > wrapWidth {
			t.Errorf("line of %d chars exceeds %d", len(line), wrapWidth)
		}
	}
}

type recordingSender struct {
	msgs []notify.Message
	err  error
}

func (s *recordingSender) Notify(_ context.Context, msg notify.Message) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

func writeResults(t *testing.T, rep *results.Report) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-results.json")
	if err := results.Write(path, rep); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmit_WritesAndSends(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out", "email_body.txt")
	sender := &recordingSender{}
	e := &Emitter{
		ResultsPath: writeResults(t, passingReport()),
		OutputPath:  out,
		Subject:     "ParaBank E2E UI + API Test Results",
		Run:         run,
		Sender:      sender,
	}

	res, err := e.Emit(context.Background())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if res.Fallback {
		t.Fatalf("unexpected fallback: %v", res.Cause)
	}
	written, _ := os.ReadFile(out)
	if string(written) != res.Body || !strings.HasPrefix(res.Body, Title) {
		t.Errorf("written body = %q", written)
	}
	if len(sender.msgs) != 1 || sender.msgs[0].Subject != e.Subject || sender.msgs[0].Body != res.Body {
		t.Errorf("sent = %+v", sender.msgs)
	}
}

func TestEmit_SendFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{err: errors.New("resend down")}
	e := &Emitter{
		ResultsPath: writeResults(t, failingReport()),
		OutputPath:  filepath.Join(t.TempDir(), "email_body.txt"),
		Run:         run,
		Sender:      sender,
	}
	res, err := e.Emit(context.Background())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if res.SendErr == nil || res.Fallback {
		t.Errorf("outcome = %+v", res)
	}
	if !strings.Contains(res.Body, "FAILED TESTS DETAILS") {
		t.Error("body should still be the full report")
	}
}

func TestEmit_RedactsBody(t *testing.T) {
	t.Parallel()

	rep := failingReport()
	rep.Suites[0].Suites[0].Tests[0].Results[0].Error.Message = "POST register.htm;jsessionid=SECRET42 failed"
	sender := &recordingSender{}
	e := &Emitter{
		ResultsPath: writeResults(t, rep),
		OutputPath:  filepath.Join(t.TempDir(), "email_body.txt"),
		Run:         run,
		Redact:      redaction.ModeRedact,
		Sender:      sender,
	}
	res, err := e.Emit(context.Background())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(res.Findings) != 1 || strings.Contains(res.Body, "SECRET42") {
		t.Fatalf("outcome = %+v", res)
	}
	if len(sender.msgs) != 1 || strings.Contains(sender.msgs[0].Body, "SECRET42") {
		t.Error("sent body should be redacted")
	}
}

func TestEmit_FallbackOnMissingResults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "email_body.txt")
	sender := &recordingSender{}
	e := &Emitter{
		ResultsPath: filepath.Join(dir, "missing.json"),
		OutputPath:  out,
		Run:         run,
		Sender:      sender,
	}

	res, err := e.Emit(context.Background())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !res.Fallback || res.Cause == nil {
		t.Fatalf("expected fallback, got %+v", res)
	}
	written, _ := os.ReadFile(out)
	body := string(written)
	if !strings.HasPrefix(body, "Failed to generate email report. Error: open results:") {
		t.Errorf("fallback body = %q", body)
	}
	if !strings.HasSuffix(body, "\nView the GitHub Actions Run here: https://github.com/acme/parabank-qa/actions/runs/42") {
		t.Errorf("fallback body = %q", body)
	}
	if len(sender.msgs) != 0 {
		t.Error("fallback should not be sent")
	}
}

func TestEmit_FallbackOnMalformedResults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "test-results.json")
	if err := os.WriteFile(in, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := &Emitter{ResultsPath: in, OutputPath: filepath.Join(dir, "email_body.txt"), Run: run}
	res, err := e.Emit(context.Background())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !res.Fallback || !strings.Contains(res.Body, "decode results") {
		t.Errorf("outcome = %+v", res)
	}
}

func TestEmit_UnwritableOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	e := &Emitter{
		ResultsPath: writeResults(t, passingReport()),
		OutputPath:  filepath.Join(blocker, "email_body.txt"),
		Run:         run,
	}
	if _, err := e.Emit(context.Background()); err == nil {
		t.Error("expected error when neither body can be written")
	}
}

func TestFail_SkipsResults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "email_body.txt")
	e := &Emitter{ResultsPath: writeResults(t, passingReport()), OutputPath: out, Run: run}
	cause := errors.New("config validation failed: base_url scheme must be http or https")

	res, err := e.Fail(cause)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !res.Fallback || !errors.Is(res.Cause, cause) {
		t.Fatalf("outcome = %+v", res)
	}
	written, _ := os.ReadFile(out)
	want := "Failed to generate email report. Error: " + cause.Error() +
		"\nView the GitHub Actions Run here: https://github.com/acme/parabank-qa/actions/runs/42"
	if string(written) != want {
		t.Errorf("body = %q, want %q", written, want)
	}
}
