package browser

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

// WaitStableOptions polls a <select> until two consecutive reads report the
// same non-zero number of options, and returns them.
func WaitStableOptions(ctx context.Context, drv Driver, loc Locator, interval, timeout time.Duration) ([]Option, error) {
	var (
		prev  = -1
		final []Option
	)
	err := expect.PollEvery(ctx, timeout, interval, func(ctx context.Context) error {
		el, err := drv.Query(ctx, loc)
		if err != nil {
			return err
		}
		n := len(el.Options)
		if n > 0 && n == prev {
			final = el.Options
			return nil
		}
		prev = n
		return &expect.AssertionError{
			Matcher: "toHaveStableOptions",
			Subject: loc.String(),
			Actual:  n,
			Message: "option list still changing",
		}
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// WaitForOption polls until the select offers value.
func WaitForOption(ctx context.Context, drv Driver, loc Locator, value string, interval, timeout time.Duration) error {
	return expect.PollEvery(ctx, timeout, interval, func(ctx context.Context) error {
		el, err := drv.Query(ctx, loc)
		if err != nil {
			return err
		}
		values := make([]string, 0, len(el.Options))
		for _, o := range el.Options {
			values = append(values, o.Value)
		}
		if slices.Contains(values, value) {
			return nil
		}
		return &expect.AssertionError{
			Matcher:  "toHaveOption",
			Subject:  loc.String(),
			Expected: value,
			Actual:   fmt.Sprint(values),
		}
	})
}
