// Package output renders run progress, summaries and report previews for the
// terminal. Styling is dropped automatically when the writer is not a TTY.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal size is unknown.
const DefaultWidth = 100

type fdWriter interface {
	Fd() uintptr
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns the column count of w, or DefaultWidth.
func Width(w io.Writer) int {
	f, ok := w.(fdWriter)
	if !ok {
		return DefaultWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return DefaultWidth
	}
	return cols
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(w)
}

// Theme holds the styles for one writer.
type Theme struct {
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Flaky   lipgloss.Style
	Skip    lipgloss.Style
	Muted   lipgloss.Style
	Heading lipgloss.Style
}

// NewTheme builds styles bound to w. Non-terminal writers get plain text.
func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	if !colorEnabled(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return Theme{
		Pass:    r.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Flaky:   r.NewStyle().Foreground(lipgloss.Color("3")),
		Skip:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Muted:   r.NewStyle().Faint(true),
		Heading: r.NewStyle().Bold(true).Underline(true),
	}
}
