// Package redaction finds credentials and personal data in text bound for
// outside the CI job, such as the emailed report, and masks them.
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
)

// Mode selects what Apply does with findings.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeWarn   Mode = "warn"
	ModeRedact Mode = "redact"
)

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOff, ModeWarn, ModeRedact:
		return m, nil
	case "":
		return ModeRedact, nil
	default:
		return "", fmt.Errorf("unknown redaction mode %q", s)
	}
}

// Category identifies what kind of value was found.
type Category string

const (
	CategorySessionID   Category = "SESSION_ID"
	CategoryPassword    Category = "PASSWORD"
	CategorySSN         Category = "SSN"
	CategoryResendKey   Category = "RESEND_KEY"
	CategoryBearerToken Category = "BEARER_TOKEN"
	CategoryGitHubToken Category = "GITHUB_TOKEN"
)

// Finding is one detected value.
type Finding struct {
	Category Category `json:"category"`
	Redacted string   `json:"redacted"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

type pattern struct {
	category Category
	re       *regexp.Regexp
	// group is the submatch holding the secret; 0 masks the whole match.
	group    int
	priority int
}

var patterns = []pattern{
	{CategoryResendKey, regexp.MustCompile(`\bre_[A-Za-z0-9_]{16,}\b`), 0, 90},
	{CategoryGitHubToken, regexp.MustCompile(`\b(?:ghp|gho|ghs|ghu|github_pat)_[A-Za-z0-9_]{20,}\b`), 0, 90},
	{CategoryBearerToken, regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9._~+/=-]{12,})`), 1, 80},
	{CategorySessionID, regexp.MustCompile(`(?i)(?:;jsessionid=|\bJSESSIONID=)([A-Za-z0-9._-]+)`), 1, 70},
	{CategoryPassword, regexp.MustCompile(`(?i)\b(?:customer\.)?(?:password|repeatedPassword)=([^&\s"']+)`), 1, 60},
	{CategorySSN, regexp.MustCompile(`(?i)\bssn["'=:\s]+(\d{3}-?\d{2}-?\d{4}|\d{9})\b`), 1, 50},
}

type hit struct {
	Finding
	priority int
}

// Result is the outcome of Apply.
type Result struct {
	Output   string    `json:"output"`
	Findings []Finding `json:"findings"`
}

// Scan lists every finding in input, without overlaps, in offset order.
func Scan(input string) []Finding {
	var all []hit
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(input, -1) {
			start, end := loc[2*p.group], loc[2*p.group+1]
			if start < 0 {
				continue
			}
			all = append(all, hit{
				Finding:  Finding{Category: p.category, Redacted: placeholder(p.category, input[start:end]), Start: start, End: end},
				priority: p.priority,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].priority != all[j].priority {
			return all[i].priority > all[j].priority
		}
		return all[i].Start < all[j].Start
	})
	var kept []Finding
	for _, f := range all {
		overlaps := false
		for _, k := range kept {
			if f.Start < k.End && k.Start < f.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, f.Finding)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// Apply scans input and, in ModeRedact, replaces each finding with a
// placeholder. ModeWarn reports findings but leaves the text alone.
func Apply(input string, mode Mode) Result {
	if mode == ModeOff {
		return Result{Output: input}
	}
	findings := Scan(input)
	if mode != ModeRedact || len(findings) == 0 {
		return Result{Output: input, Findings: findings}
	}

	out := input
	for i := len(findings) - 1; i >= 0; i-- {
		f := findings[i]
		out = out[:f.Start] + f.Redacted + out[f.End:]
	}
	return Result{Output: out, Findings: findings}
}

// placeholder is stable for the same value so repeated leaks can be matched
// up without revealing them.
func placeholder(cat Category, value string) string {
	sum := sha256.Sum256([]byte(string(cat) + ":" + value))
	return fmt.Sprintf("[REDACTED:%s:%s]", cat, hex.EncodeToString(sum[:4]))
}
