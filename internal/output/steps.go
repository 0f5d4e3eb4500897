package output

import (
	"fmt"
	"io"
	"time"
)

// StepsWriter prints one line per unit of work as it finishes.
type StepsWriter struct {
	w       io.Writer
	theme   Theme
	current *step
	now     func() time.Time
}

type step struct {
	title string
	start time.Time
}

// NewStepsWriter writes to w.
func NewStepsWriter(w io.Writer) *StepsWriter {
	return &StepsWriter{w: w, theme: NewTheme(w), now: time.Now}
}

// Start begins a step.
func (s *StepsWriter) Start(title string) {
	s.current = &step{title: title, start: s.now()}
}

// Done marks the current step as passed.
func (s *StepsWriter) Done() { s.finish(s.theme.Pass.Render("✓"), "") }

// Fail marks the current step as failed.
func (s *StepsWriter) Fail() { s.finish(s.theme.Fail.Render("✘"), "") }

// Skip marks the current step as skipped.
func (s *StepsWriter) Skip() { s.finish(s.theme.Skip.Render("-"), "") }

// Warn marks the current step as passed with a warning.
func (s *StepsWriter) Warn() { s.finish(s.theme.Flaky.Render("!"), "") }

// Finish ends the current step with a custom marker and note.
func (s *StepsWriter) Finish(mark, note string) { s.finish(mark, note) }

func (s *StepsWriter) finish(mark, note string) {
	if s.current == nil {
		return
	}
	line := fmt.Sprintf("  %s %s", mark, s.current.title)
	if note != "" {
		line += " " + s.theme.Muted.Render(note)
	}
	fmt.Fprintln(s.w, line)
	s.current = nil
}
