// Package results models the structured test-results artifact written by the
// runner and consumed by the report emitter.
//
// The shape follows the Playwright JSON reporter so existing CI tooling can
// read it: {config, suites: [{title, tests, suites}], stats, errors}. Unknown
// fields are ignored on read and missing ones decode to zero values.
package results

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Status is the outcome of a single attempt.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusTimedOut    Status = "timedOut"
	StatusSkipped     Status = "skipped"
	StatusInterrupted Status = "interrupted"
)

// Failed reports whether the attempt counts as a failure.
func (s Status) Failed() bool {
	return s == StatusFailed || s == StatusTimedOut || s == StatusInterrupted
}

// Outcome is the overall classification of a test across its attempts.
type Outcome string

const (
	OutcomeExpected   Outcome = "expected"
	OutcomeUnexpected Outcome = "unexpected"
	OutcomeFlaky      Outcome = "flaky"
	OutcomeSkipped    Outcome = "skipped"
)

// Report is the top-level artifact.
type Report struct {
	Config *RunConfig `json:"config,omitempty"`
	Suites []*Suite   `json:"suites"`
	Errors []Error    `json:"errors,omitempty"`
	Stats  Stats      `json:"stats"`
}

// RunConfig records how the run was configured.
type RunConfig struct {
	RunID    string            `json:"runId"`
	BaseURL  string            `json:"baseURL,omitempty"`
	Retries  int               `json:"retries"`
	Workers  int               `json:"workers"`
	Headless bool              `json:"headless"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Stats are the run totals by outcome. Duration is in milliseconds.
type Stats struct {
	StartTime  time.Time `json:"startTime"`
	Duration   float64   `json:"duration"`
	Expected   int       `json:"expected"`
	Unexpected int       `json:"unexpected"`
	Flaky      int       `json:"flaky"`
	Skipped    int       `json:"skipped"`
}

// Total is the number of tests executed.
func (s Stats) Total() int {
	return s.Expected + s.Unexpected + s.Flaky + s.Skipped
}

// Suite groups tests; suites nest arbitrarily.
type Suite struct {
	Title  string   `json:"title"`
	File   string   `json:"file,omitempty"`
	Tests  []*Test  `json:"tests,omitempty"`
	Suites []*Suite `json:"suites,omitempty"`
}

// Test is one case and all of its attempts in order.
type Test struct {
	ID      string    `json:"id,omitempty"`
	Title   string    `json:"title"`
	Status  Outcome   `json:"status"`
	Results []*Result `json:"results"`
}

// Result is one attempt. Duration is in milliseconds.
type Result struct {
	Retry       int          `json:"retry"`
	Status      Status       `json:"status"`
	Duration    float64      `json:"duration"`
	StartTime   time.Time    `json:"startTime"`
	Error       *Error       `json:"error,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Steps       []Step       `json:"steps,omitempty"`
}

// Elapsed returns Duration as a time.Duration.
func (r *Result) Elapsed() time.Duration {
	return time.Duration(r.Duration * float64(time.Millisecond))
}

// Error carries a failure message.
type Error struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Attachment references a file (Path) or inline content (Body).
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Step is one named step of an attempt. Duration is in milliseconds.
type Step struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Error    *Error  `json:"error,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Millis converts d to the artifact's millisecond representation.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Collect flattens the suite tree depth-first: a suite's own tests come
// before those of its children.
func Collect(suites []*Suite) []*Test {
	var tests []*Test
	for _, s := range suites {
		if s == nil {
			continue
		}
		for _, t := range s.Tests {
			if t != nil {
				tests = append(tests, t)
			}
		}
		tests = append(tests, Collect(s.Suites)...)
	}
	return tests
}

// Classify derives a test's outcome from its attempts.
func Classify(attempts []*Result) Outcome {
	if len(attempts) == 0 {
		return OutcomeSkipped
	}
	last := attempts[len(attempts)-1]
	switch {
	case last.Status == StatusSkipped:
		return OutcomeSkipped
	case last.Status == StatusPassed && len(attempts) == 1:
		return OutcomeExpected
	case last.Status == StatusPassed:
		return OutcomeFlaky
	default:
		return OutcomeUnexpected
	}
}

// Recount recomputes the outcome counters from the tests, preserving
// StartTime and Duration.
func (r *Report) Recount() {
	s := Stats{StartTime: r.Stats.StartTime, Duration: r.Stats.Duration}
	for _, t := range Collect(r.Suites) {
		switch t.Status {
		case OutcomeExpected:
			s.Expected++
		case OutcomeUnexpected:
			s.Unexpected++
		case OutcomeFlaky:
			s.Flaky++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	r.Stats = s
}

// Decode reads a report from r.
func Decode(r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode results: empty document")
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &rep, nil
}

// Load reads the artifact at path.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Write stores the artifact at path, creating parent directories.
func Write(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
