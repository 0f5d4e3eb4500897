// Package browser defines the contract the page objects need from a browser
// engine, a chromedp implementation of it and an in-memory Fake for tests.
package browser

import (
	"context"
	"fmt"
	"net/http"
)

// Locator identifies elements on the current page.
type Locator struct {
	// Selector is a CSS selector.
	Selector string
	// HasText keeps only matches whose text contains this substring.
	HasText string
	// Index picks the nth remaining match (0-based).
	Index int
	// Inner narrows the picked match to its first descendant matching this
	// CSS selector.
	Inner string
}

// CSS returns a locator for the first element matching selector.
func CSS(selector string) Locator { return Locator{Selector: selector} }

// Nth returns a copy of l narrowed to the i-th match.
func (l Locator) Nth(i int) Locator {
	l.Index = i
	return l
}

// Locate returns a copy of l narrowed to a descendant.
func (l Locator) Locate(inner string) Locator {
	l.Inner = inner
	return l
}

// WithText returns a copy of l filtered on text content.
func (l Locator) WithText(s string) Locator {
	l.HasText = s
	return l
}

func (l Locator) String() string {
	s := l.Selector
	if l.HasText != "" {
		s += fmt.Sprintf(" >> hasText=%q", l.HasText)
	}
	if l.Index > 0 {
		s += fmt.Sprintf(" >> nth=%d", l.Index)
	}
	if l.Inner != "" {
		s += " >> " + l.Inner
	}
	return s
}

// Option is one entry of a <select>.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Element is a snapshot of a locator's state at query time.
type Element struct {
	// Count is the number of matches after text filtering.
	Count   int      `json:"count"`
	Found   bool     `json:"found"`
	Visible bool     `json:"visible"`
	Text    string   `json:"text"`
	Value   string   `json:"value"`
	Options []Option `json:"options"`
}

// Driver is what page objects and the API helper need from a browser.
// Every call is bounded by ctx and by the driver's own action timeout.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitNetworkIdle(ctx context.Context) error
	Query(ctx context.Context, loc Locator) (Element, error)
	Fill(ctx context.Context, loc Locator, value string) error
	Click(ctx context.Context, loc Locator) error
	SelectOption(ctx context.Context, loc Locator, value string) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	SetCookies(ctx context.Context, cookies []*http.Cookie) error
	ClearCookies(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}
