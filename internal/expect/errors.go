// Package expect holds the failure taxonomy shared by page objects, the API
// helper and the runner, plus polling assertions in the style of web-first
// test runners: an expectation is retried until it holds or its timeout
// elapses.
package expect

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AssertionError reports an expectation that was not met.
type AssertionError struct {
	// Matcher names the expectation, e.g. "toHaveText".
	Matcher string
	// Subject is what was inspected: a selector, a URL, "status".
	Subject  string
	Expected any
	Actual   any
	// Diff is an inline text diff for string mismatches.
	Diff string
	// Timeout is set when the expectation was polled until it expired.
	Timeout time.Duration
	// Message is free-form context appended to the report.
	Message string
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expect(%s).%s", e.Subject, e.Matcher)
	if e.Timeout > 0 {
		fmt.Fprintf(&b, " failed after %s", e.Timeout)
	} else {
		b.WriteString(" failed")
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Expected != nil {
		fmt.Fprintf(&b, "\n  expected: %s", formatValue(e.Expected))
	}
	if e.Actual != nil {
		fmt.Fprintf(&b, "\n  received: %s", formatValue(e.Actual))
	}
	if e.Diff != "" {
		fmt.Fprintf(&b, "\n  diff:     %s", e.Diff)
		want, wok := e.Expected.(string)
		got, gok := e.Actual.(string)
		if wok && gok {
			fmt.Fprintf(&b, " (%.0f%% similar)", 100*Similarity(want, got))
		}
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// TimeoutError reports an operation that did not finish in its window.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: timeout %s exceeded", e.Op, e.Timeout)
	}
	return fmt.Sprintf("%s: timeout exceeded", e.Op)
}

// Unwrap exposes the cause and context.DeadlineExceeded to errors.Is.
func (e *TimeoutError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, context.DeadlineExceeded}
	}
	return []error{context.DeadlineExceeded}
}
