package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/parabank-qa/internal/results"
)

// ListReporter prints each test as it completes.
type ListReporter struct {
	mu    sync.Mutex
	steps *StepsWriter
	theme Theme
}

// NewListReporter writes to w.
func NewListReporter(w io.Writer) *ListReporter {
	return &ListReporter{steps: NewStepsWriter(w), theme: NewTheme(w)}
}

// TestEnd reports one finished test.
func (l *ListReporter) TestEnd(t *results.Test) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total time.Duration
	for _, r := range t.Results {
		if r != nil {
			total += r.Elapsed()
		}
	}
	note := "(" + total.Round(10*time.Millisecond).String()
	if n := len(t.Results); n > 1 {
		note += fmt.Sprintf(", %d attempts", n)
	}
	note += ")"

	l.steps.Start(t.Title)
	switch t.Status {
	case results.OutcomeExpected:
		l.steps.Finish(l.theme.Pass.Render("✓"), note)
	case results.OutcomeFlaky:
		l.steps.Finish(l.theme.Flaky.Render("!"), note+" flaky")
	case results.OutcomeSkipped:
		l.steps.Finish(l.theme.Skip.Render("-"), note)
	default:
		l.steps.Finish(l.theme.Fail.Render("✘"), note)
	}
}

// WriteSummary prints the run totals and a line per failing test, fitted to
// width columns.
func WriteSummary(w io.Writer, rep *results.Report, width int) {
	th := NewTheme(w)
	if width <= 0 {
		width = DefaultWidth
	}
	s := rep.Stats

	fmt.Fprintln(w)
	parts := []string{th.Pass.Render(fmt.Sprintf("%d passed", s.Expected))}
	if s.Unexpected > 0 {
		parts = append(parts, th.Fail.Render(fmt.Sprintf("%d failed", s.Unexpected)))
	}
	if s.Flaky > 0 {
		parts = append(parts, th.Flaky.Render(fmt.Sprintf("%d flaky", s.Flaky)))
	}
	if s.Skipped > 0 {
		parts = append(parts, th.Skip.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	dur := time.Duration(s.Duration * float64(time.Millisecond)).Round(10 * time.Millisecond)
	fmt.Fprintf(w, "  %s %s\n", strings.Join(parts, ", "), th.Muted.Render("("+dur.String()+")"))

	var failing []*results.Test
	for _, t := range results.Collect(rep.Suites) {
		if t.Status == results.OutcomeUnexpected {
			failing = append(failing, t)
		}
	}
	if len(failing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  "+th.Heading.Render("Failures"))
		for i, t := range failing {
			fmt.Fprintf(w, "  %d) %s\n", i+1, runewidth.Truncate(t.Title, width-6, "…"))
			if msg := lastError(t); msg != "" {
				fmt.Fprintf(w, "     %s\n", th.Fail.Render(runewidth.Truncate(msg, width-5, "…")))
			}
		}
	}
	for _, e := range rep.Errors {
		fmt.Fprintf(w, "  %s\n", th.Fail.Render(runewidth.Truncate(e.Message, width-2, "…")))
	}
}

func lastError(t *results.Test) string {
	for i := len(t.Results) - 1; i >= 0; i-- {
		if r := t.Results[i]; r != nil && r.Error != nil {
			msg, _, _ := strings.Cut(r.Error.Message, "\n")
			return msg
		}
	}
	return ""
}
