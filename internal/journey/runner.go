// Package journey runs the end-to-end cases. Each attempt gets fresh
// fixtures, a test deadline and recorded steps; failed attempts are retried
// as a whole and the outcome lands in a results.Report.
package journey

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
	"github.com/Dicklesworthstone/parabank-qa/internal/fixture"
	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

// SuiteTitle names the suite in the results artifact.
const SuiteTitle = "ParaBank E2E UI Test Suite"

// captureTimeout bounds screenshot and snapshot capture after a failure,
// when the attempt's own deadline may already have passed.
const captureTimeout = 10 * time.Second

// Case is one end-to-end test.
type Case struct {
	Title string
	File  string
	Run   func(ctx context.Context, t *T) error
}

// SkipError marks an attempt as skipped rather than failed.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

// Skip returns an error that, returned from a case, records it as skipped.
func Skip(reason string) error {
	return &SkipError{Reason: reason}
}

// StepError is a failure inside a named step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %q: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// T is the per-attempt handle passed to a case.
type T struct {
	*fixture.Fixtures

	attempt     int
	logger      *log.Logger
	start       func() time.Time
	steps       []results.Step
	attachments []results.Attachment
}

// Attempt is the zero-based retry number.
func (t *T) Attempt() int { return t.attempt }

// Log writes a case-scoped log line.
func (t *T) Log(msg string, keyvals ...any) {
	t.logger.Info(msg, keyvals...)
}

// Step runs fn as a named step, recording its duration and error. The
// returned error wraps fn's error in a StepError.
func (t *T) Step(ctx context.Context, title string, fn func(context.Context) error) error {
	n := len(t.steps) + 1
	begin := t.start()
	t.logger.Debug(fmt.Sprintf("step %d: %s", n, title))

	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	elapsed := t.start().Sub(begin)

	step := results.Step{Title: title, Duration: results.Millis(elapsed)}
	if err != nil {
		step.Error = &results.Error{Message: err.Error()}
	}
	t.steps = append(t.steps, step)

	if err != nil {
		var skip *SkipError
		if errors.As(err, &skip) {
			return err
		}
		t.logger.Error(fmt.Sprintf("step %d: %s", n, title), "duration", elapsed.Round(time.Millisecond), "err", err)
		return &StepError{Step: title, Err: err}
	}
	t.logger.Info(fmt.Sprintf("step %d: %s", n, title), "duration", elapsed.Round(time.Millisecond))
	return nil
}

// Attach records an attachment on the current attempt.
func (t *T) Attach(a results.Attachment) {
	t.attachments = append(t.attachments, a)
}

// Runner executes cases.
type Runner struct {
	cfg       *config.Config
	factory   fixture.Factory
	logger    *log.Logger
	now       func() time.Time
	onTestEnd func(*results.Test)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithTestEnd registers a callback invoked after each test's final attempt.
// Calls are serialized.
func WithTestEnd(fn func(*results.Test)) RunnerOption {
	return func(r *Runner) { r.onTestEnd = fn }
}

// NewRunner returns a Runner that builds fixtures with factory.
func NewRunner(cfg *config.Config, factory fixture.Factory, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg, factory: factory, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	r.logger = r.logger.WithPrefix("journey")
	return r
}

// Filter keeps the cases whose title matches pattern. An empty pattern
// keeps all of them.
func Filter(cases []Case, pattern string) ([]Case, error) {
	if pattern == "" {
		return cases, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid case filter %q: %w", pattern, err)
	}
	var out []Case
	for _, c := range cases {
		if re.MatchString(c.Title) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Run executes cases on up to run.workers goroutines and returns the report.
// Test failures are recorded in the report, not returned.
func (r *Runner) Run(ctx context.Context, cases []Case) (*results.Report, error) {
	cases, err := Filter(cases, r.cfg.Run.CaseFilter)
	if err != nil {
		return nil, err
	}

	start := r.now()
	suite := &results.Suite{Title: SuiteTitle, File: "journey"}
	suite.Tests = make([]*results.Test, len(cases))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(max(1, r.cfg.Run.Workers))
	for i, c := range cases {
		g.Go(func() error {
			test := r.runCase(ctx, c)
			suite.Tests[i] = test
			if r.onTestEnd != nil {
				mu.Lock()
				r.onTestEnd(test)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	rep := &results.Report{
		Config: &results.RunConfig{
			RunID:    results.NewRunID(),
			BaseURL:  r.cfg.BaseURL,
			Retries:  r.cfg.Run.Retries,
			Workers:  r.cfg.Run.Workers,
			Headless: r.cfg.Browser.Headless,
		},
		Suites: []*results.Suite{suite},
		Stats: results.Stats{
			StartTime: start,
			Duration:  results.Millis(r.now().Sub(start)),
		},
	}
	rep.Recount()
	if err := ctx.Err(); err != nil {
		rep.Errors = append(rep.Errors, results.Error{Message: "run interrupted: " + err.Error()})
	}
	r.logger.Info("run finished",
		"total", rep.Stats.Total(),
		"passed", rep.Stats.Expected,
		"failed", rep.Stats.Unexpected,
		"flaky", rep.Stats.Flaky,
		"skipped", rep.Stats.Skipped)
	return rep, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) *results.Test {
	test := &results.Test{ID: caseID(c), Title: c.Title}
	for attempt := 0; attempt <= r.cfg.Run.Retries; attempt++ {
		res := r.runAttempt(ctx, c, attempt)
		test.Results = append(test.Results, res)
		if !res.Status.Failed() || ctx.Err() != nil {
			break
		}
	}
	test.Status = results.Classify(test.Results)
	r.logger.Info("test finished", "test", c.Title, "status", test.Status, "attempts", len(test.Results))
	return test
}

func (r *Runner) runAttempt(ctx context.Context, c Case, attempt int) *results.Result {
	logger := r.logger.With("test", c.Title, "retry", attempt)
	start := r.now()
	res := &results.Result{Retry: attempt, StartTime: start}
	t := &T{attempt: attempt, logger: logger, start: r.now}

	actx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Test)
	defer cancel()

	err := fixture.Run(actx, r.factory, func(ctx context.Context, f *fixture.Fixtures) (err error) {
		t.Fixtures = f
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
			r.capture(ctx, t, c, err)
		}()
		return c.Run(ctx, t)
	})
	if err != nil && actx.Err() == context.DeadlineExceeded && ctx.Err() == nil && !expect.IsTimeout(err) {
		err = &expect.TimeoutError{Op: "test", Timeout: r.cfg.Timeouts.Test, Err: err}
	}

	res.Duration = results.Millis(r.now().Sub(start))
	res.Steps = t.steps
	res.Attachments = t.attachments
	res.Status = statusOf(ctx, err)
	if err != nil && res.Status != results.StatusSkipped {
		res.Error = &results.Error{Message: err.Error()}
		logger.Warn("attempt failed", "status", res.Status, "err", err)
	}
	return res
}

func statusOf(ctx context.Context, err error) results.Status {
	var skip *SkipError
	switch {
	case err == nil:
		return results.StatusPassed
	case errors.As(err, &skip):
		return results.StatusSkipped
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return results.StatusInterrupted
	case expect.IsTimeout(err):
		return results.StatusTimedOut
	default:
		return results.StatusFailed
	}
}

// capture stores the screenshot and page snapshot the policies ask for.
func (r *Runner) capture(ctx context.Context, t *T, c Case, err error) {
	var skip *SkipError
	failed := err != nil && !errors.As(err, &skip)

	shot := r.cfg.Run.Screenshot == "on" || (r.cfg.Run.Screenshot == "only-on-failure" && failed)
	trace := r.cfg.Run.Trace == "on" || (r.cfg.Run.Trace == "on-first-retry" && t.attempt == 1)
	if !shot && !trace {
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()
	dir := filepath.Join(r.cfg.Run.OutputDir, fmt.Sprintf("%s-retry%d", Slug(c.Title), t.attempt))

	if shot {
		name := "test-finished-1.png"
		if failed {
			name = "test-failed-1.png"
		}
		if png, cerr := t.Driver.Screenshot(cctx); cerr != nil {
			t.logger.Warn("screenshot failed", "err", cerr)
		} else if path, werr := writeArtifact(dir, name, png); werr != nil {
			t.logger.Warn("screenshot not saved", "err", werr)
		} else {
			t.Attach(results.Attachment{Name: "screenshot", ContentType: "image/png", Path: path})
		}
	}
	if trace {
		if html, cerr := t.Driver.HTML(cctx); cerr != nil {
			t.logger.Warn("page snapshot failed", "err", cerr)
		} else if path, werr := writeArtifact(dir, "page.html", []byte(html)); werr != nil {
			t.logger.Warn("page snapshot not saved", "err", werr)
		} else {
			t.Attach(results.Attachment{Name: "trace", ContentType: "text/html", Path: path})
		}
	}
}

func writeArtifact(dir, name string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a file-system friendly name.
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	return s
}

// caseID is stable across runs for the same file and title.
func caseID(c Case) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.File+"#"+c.Title)).String()
}
