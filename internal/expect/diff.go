package expect

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// TextDiff renders an inline character diff between want and got, with
// removals as [-x-] and insertions as {+y+}. Identical inputs yield "".
func TextDiff(want, got string) string {
	if want == got {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

// Similarity returns 1 for identical strings and approaches 0 as the
// Levenshtein distance grows relative to the longer input.
func Similarity(a, b string) float64 {
	dmp := diffmatchpatch.New()
	dist := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}
