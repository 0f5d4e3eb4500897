package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	return &Report{
		Config: &RunConfig{RunID: "run-1", BaseURL: "http://parabank.test/parabank/", Retries: 2, Workers: 1},
		Suites: []*Suite{{
			Title: "parabank",
			File:  "journey",
			Tests: []*Test{
				{Title: "login", Status: OutcomeExpected, Results: []*Result{{Status: StatusPassed, Duration: 1200}}},
			},
			Suites: []*Suite{{
				Title: "nested",
				Tests: []*Test{
					{Title: "transfer", Status: OutcomeFlaky, Results: []*Result{
						{Retry: 0, Status: StatusFailed, Duration: 3000, Error: &Error{Message: "boom"},
							Attachments: []Attachment{{Name: "screenshot", ContentType: "image/png", Path: "test-results/a.png"}}},
						{Retry: 1, Status: StatusPassed, Duration: 2500, Steps: []Step{{Title: "open account", Duration: 420}}},
					}},
				},
			}},
		}},
		Stats: Stats{Duration: 6700, Expected: 1, Flaky: 1},
	}
}

func TestCollect_DepthFirst(t *testing.T) {
	t.Parallel()

	suites := []*Suite{
		{Tests: []*Test{{Title: "a"}}, Suites: []*Suite{
			{Tests: []*Test{{Title: "b"}}, Suites: []*Suite{{Tests: []*Test{{Title: "c"}}}}},
			{Tests: []*Test{{Title: "d"}}},
		}},
		nil,
		{Tests: []*Test{{Title: "e"}, nil}},
	}

	var titles []string
	for _, tc := range Collect(suites) {
		titles = append(titles, tc.Title)
	}
	if got := strings.Join(titles, ","); got != "a,b,c,d,e" {
		t.Fatalf("Collect order = %s, want a,b,c,d,e", got)
	}
	if Collect(nil) != nil {
		t.Error("Collect(nil) should be nil")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	pass := &Result{Status: StatusPassed}
	fail := &Result{Status: StatusFailed}
	timeout := &Result{Status: StatusTimedOut}
	skip := &Result{Status: StatusSkipped}

	tests := []struct {
		name     string
		attempts []*Result
		want     Outcome
	}{
		{"none", nil, OutcomeSkipped},
		{"first try", []*Result{pass}, OutcomeExpected},
		{"retried pass", []*Result{fail, pass}, OutcomeFlaky},
		{"timeout then pass", []*Result{timeout, pass}, OutcomeFlaky},
		{"all failed", []*Result{fail, timeout, fail}, OutcomeUnexpected},
		{"skipped", []*Result{skip}, OutcomeSkipped},
	}
	for _, tc := range tests {
		if got := Classify(tc.attempts); got != tc.want {
			t.Errorf("%s: Classify = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestRecount(t *testing.T) {
	t.Parallel()

	rep := sampleReport()
	rep.Stats = Stats{Duration: 10}
	rep.Suites[0].Tests = append(rep.Suites[0].Tests,
		&Test{Title: "x", Status: OutcomeUnexpected},
		&Test{Title: "y", Status: OutcomeSkipped})
	rep.Recount()

	want := Stats{Duration: 10, Expected: 1, Unexpected: 1, Flaky: 1, Skipped: 1}
	if rep.Stats != want {
		t.Fatalf("Stats = %+v, want %+v", rep.Stats, want)
	}
	if rep.Stats.Total() != 4 {
		t.Errorf("Total = %d, want 4", rep.Stats.Total())
	}
}

func TestWriteLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "test-results.json")
	rep := sampleReport()
	rep.Stats.StartTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := Write(path, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Config == nil || got.Config.RunID != "run-1" {
		t.Fatalf("config = %+v", got.Config)
	}
	if !got.Stats.StartTime.Equal(rep.Stats.StartTime) {
		t.Errorf("startTime = %v", got.Stats.StartTime)
	}
	tests := Collect(got.Suites)
	if len(tests) != 2 || tests[1].Results[0].Attachments[0].Path != "test-results/a.png" {
		t.Fatalf("unexpected tests after round trip: %+v", tests)
	}
	if tests[1].Results[1].Steps[0].Title != "open account" {
		t.Errorf("steps lost: %+v", tests[1].Results[1])
	}
}

func TestDecode_ToleratesForeignArtifact(t *testing.T) {
	t.Parallel()

	// Minimal reporter output with fields we do not model.
	doc := `{
	  "config": {"rootDir": "/w", "workers": 1, "projects": []},
	  "suites": [{"title": "parabank-e2e.spec.ts", "specs": [], "suites": [{"title": "ParaBank",
	    "tests": [{"title": "journey", "status": "unexpected", "projectName": "chromium",
	      "results": [{"status": "failed", "duration": 1530.5, "error": {"message": "\u001b[31mExpected\u001b[39m"}}]}]}]}],
	  "stats": {"expected": 0, "unexpected": 1}
	}`
	rep, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tests := Collect(rep.Suites)
	if len(tests) != 1 || tests[0].Status != OutcomeUnexpected {
		t.Fatalf("tests = %+v", tests)
	}
	if d := tests[0].Results[0].Elapsed(); d != 1530500*time.Microsecond {
		t.Errorf("Elapsed = %v", d)
	}
	if rep.Stats.Total() != 1 {
		t.Errorf("Total = %d", rep.Stats.Total())
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader("  ")); err == nil {
		t.Error("expected error for empty document")
	}
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rep := sampleReport()
	rep.Suites[0].Tests[0].Title = "<script>alert(1)</script>"

	path, err := WriteHTML(dir, rep)
	if err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	html := string(data)
	if strings.Contains(html, "<script>alert") {
		t.Error("title was not escaped")
	}
	for _, want := range []string{"run-1", "transfer", "flaky", "open account", "boom"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestExportPrometheus(t *testing.T) {
	t.Parallel()

	out := ExportPrometheus(sampleReport())

	for _, want := range []string{
		"# TYPE parabank_qa_tests gauge",
		`parabank_qa_tests{run="run-1",outcome="expected"} 1`,
		`parabank_qa_tests{run="run-1",outcome="flaky"} 1`,
		`parabank_qa_tests{run="run-1",outcome="unexpected"} 0`,
		`parabank_qa_run_duration_ms{run="run-1"} 6700`,
		`parabank_qa_test_attempts{run="run-1",test="transfer",outcome="flaky"} 2`,
		`parabank_qa_step_duration_ms{run="run-1",test="transfer",step="open account",status="passed"} 420.00`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	// Sorted by title: login before transfer.
	if strings.Index(out, `test="login"`) > strings.Index(out, `test="transfer"`) {
		t.Error("expected tests sorted by title")
	}
}

func TestExportPrometheus_Empty(t *testing.T) {
	t.Parallel()

	out := ExportPrometheus(&Report{})
	if !strings.Contains(out, `parabank_qa_tests{run="",outcome="expected"} 0`) {
		t.Errorf("expected zero counters, got:\n%s", out)
	}
	if strings.Contains(out, "parabank_qa_test_attempts") || strings.Contains(out, "parabank_qa_step_duration_ms") {
		t.Error("empty report should not contain per-test sections")
	}
}

func TestSanitizeLabel(t *testing.T) {
	t.Parallel()
	if got := sanitizeLabel(`a"b{c}`); got != "a_b_c_" {
		t.Errorf("sanitizeLabel = %q", got)
	}
}

func TestNewRunID_Unique(t *testing.T) {
	t.Parallel()
	if a, b := NewRunID(), NewRunID(); a == b || len(a) != 36 {
		t.Errorf("run ids %q %q", a, b)
	}
}
