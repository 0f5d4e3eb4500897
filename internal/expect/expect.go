package expect

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// DefaultPollInterval is the delay between polled checks.
const DefaultPollInterval = 100 * time.Millisecond

// Poll runs check until it returns nil, the timeout elapses or ctx ends.
// Every error from check is treated as "not yet"; when time runs out the
// last error is returned, with AssertionErrors stamped with the timeout.
func Poll(ctx context.Context, timeout time.Duration, check func(context.Context) error) error {
	return PollEvery(ctx, timeout, DefaultPollInterval, check)
}

// PollEvery is Poll with an explicit interval.
func PollEvery(ctx context.Context, timeout, interval time.Duration, check func(context.Context) error) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		last = check(pctx)
		if last == nil {
			return nil
		}
		select {
		case <-pctx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("%w (last failure: %v)", ctx.Err(), last)
			}
			var ae *AssertionError
			if errors.As(last, &ae) {
				ae.Timeout = timeout
				return last
			}
			var te *TimeoutError
			if errors.As(last, &te) || errors.Is(last, context.DeadlineExceeded) {
				return last
			}
			return &TimeoutError{Op: "poll", Timeout: timeout, Err: last}
		case <-ticker.C:
		}
	}
}

// Equal fails unless got equals want.
func Equal(subject string, want, got any) error {
	if reflect.DeepEqual(want, got) {
		return nil
	}
	err := &AssertionError{Matcher: "toBe", Subject: subject, Expected: want, Actual: got}
	if ws, ok := want.(string); ok {
		if gs, ok := got.(string); ok {
			err.Diff = TextDiff(ws, gs)
		}
	}
	return err
}

// True fails unless cond holds.
func True(subject string, cond bool, msg string) error {
	if cond {
		return nil
	}
	return &AssertionError{Matcher: "toBeTruthy", Subject: subject, Message: msg}
}

// NonEmpty fails when s is empty after trimming.
func NonEmpty(subject, s string) error {
	if strings.TrimSpace(s) != "" {
		return nil
	}
	return &AssertionError{Matcher: "toBeTruthy", Subject: subject, Actual: s, Message: "value is empty"}
}

// Greater fails unless got > floor.
func Greater(subject string, got, floor int) error {
	if got > floor {
		return nil
	}
	return &AssertionError{
		Matcher:  "toBeGreaterThan",
		Subject:  subject,
		Expected: fmt.Sprintf("> %d", floor),
		Actual:   got,
	}
}

// Match fails unless s matches re.
func Match(subject string, re *regexp.Regexp, s string) error {
	if re.MatchString(s) {
		return nil
	}
	return &AssertionError{Matcher: "toMatch", Subject: subject, Expected: re.String(), Actual: s}
}

// Text fails unless got equals want once both are trimmed.
func Text(subject, want, got string) error {
	want, got = strings.TrimSpace(want), strings.TrimSpace(got)
	if want == got {
		return nil
	}
	return &AssertionError{
		Matcher:  "toHaveText",
		Subject:  subject,
		Expected: want,
		Actual:   got,
		Diff:     TextDiff(want, got),
	}
}

// ContainsText fails unless got contains want.
func ContainsText(subject, want, got string) error {
	if strings.Contains(got, want) {
		return nil
	}
	return &AssertionError{
		Matcher:  "toContainText",
		Subject:  subject,
		Expected: want,
		Actual:   strings.TrimSpace(got),
	}
}

// IsAssertion reports whether err carries an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// IsTimeout reports whether err is a timeout rather than a mismatch.
func IsTimeout(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return !IsAssertion(err) && errors.Is(err, context.DeadlineExceeded)
}
