package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderReport previews a plain-text report through glamour. The report's
// underlined titles become headings and each line keeps its own break.
func RenderReport(body string, width int, color bool) (string, error) {
	style := "notty"
	if color {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(reportMarkdown(body))
}

func reportMarkdown(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case line == "":
		case isRule(line):
		case i+1 < len(lines) && isRule(lines[i+1]):
		case strings.HasPrefix(line, "   "):
			// Indented detail lines would otherwise turn into a code block.
			line = strings.Repeat("&nbsp;", 3) + strings.TrimLeft(line, " ") + "  "
		default:
			line += "  "
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func isRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	return strings.Trim(line, "=") == "" || strings.Trim(line, "-") == ""
}
