// Package pages models the ParaBank screens as page objects. Each page
// embeds *Base, which owns the driver and the shared wait and assertion
// helpers, and adds its own locators and operations.
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

// Site chrome present on every ParaBank page.
var (
	HeaderHomeLink    = browser.CSS(`li.home a`)
	HeaderAboutUsLink = browser.CSS(`li.aboutus a`)
	HeaderContactLink = browser.CSS(`li.contact a`)

	SidebarAboutUsLink   = browser.CSS(`#headerPanel a[href*="about.htm"]`)
	SidebarServicesLink  = browser.CSS(`#headerPanel a[href*="services.htm"]`)
	SidebarProductsLink  = browser.CSS(`#headerPanel a[href*="parasoft.com/jsp/products.jsp"]`)
	SidebarLocationsLink = browser.CSS(`#headerPanel a[href*="parasoft.com/jsp/pr/contacts.jsp"]`)
	SidebarAdminPageLink = browser.CSS(`#headerPanel a[href*="admin.htm"]`)

	FooterHomeLink      = browser.CSS(`#footerPanel a[href*="index.htm"]`)
	FooterAboutUsLink   = browser.CSS(`#footerPanel a[href*="about.htm"]`)
	FooterServicesLink  = browser.CSS(`#footerPanel a[href*="services.htm"]`)
	FooterContactUsLink = browser.CSS(`#footerPanel a[href*="contact.htm"]`)
	FooterSiteMapLink   = browser.CSS(`#footerPanel a[href*="sitemap.htm"]`)
)

// rightPanelHeading is the main heading on every content page.
var rightPanelHeading = browser.CSS(`#rightPanel h1`)

// Options tunes the waits shared by all pages.
type Options struct {
	BaseURL string
	// ExpectTimeout bounds every polled expectation.
	ExpectTimeout time.Duration
	// PollInterval is the delay between polls, including option-list
	// stability checks on AJAX-populated selects.
	PollInterval time.Duration
}

// Base is the capability shared by every page object.
type Base struct {
	Driver browser.Driver
	opts   Options
}

// NewBase binds drv to the site rooted at opts.BaseURL.
func NewBase(drv browser.Driver, opts Options) *Base {
	if opts.ExpectTimeout <= 0 {
		opts.ExpectTimeout = 10 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Base{Driver: drv, opts: opts}
}

// BaseURL returns the site root without a trailing slash.
func (b *Base) BaseURL() string { return b.opts.BaseURL }

// Navigate opens path relative to the base URL and waits for the network to
// settle.
func (b *Base) Navigate(ctx context.Context, path string) error {
	if err := b.Driver.Navigate(ctx, b.opts.BaseURL+path); err != nil {
		return err
	}
	return b.WaitForPageLoad(ctx)
}

// WaitForPageLoad waits for network idle.
func (b *Base) WaitForPageLoad(ctx context.Context) error {
	return b.Driver.WaitNetworkIdle(ctx)
}

// Title returns the document title.
func (b *Base) Title(ctx context.Context) (string, error) {
	return b.Driver.Title(ctx)
}

// CurrentURL returns the page location.
func (b *Base) CurrentURL(ctx context.Context) (string, error) {
	return b.Driver.URL(ctx)
}

func (b *Base) poll(ctx context.Context, check func(context.Context) error) error {
	return expect.PollEvery(ctx, b.opts.ExpectTimeout, b.opts.PollInterval, check)
}

// ExpectTitleContains waits for the title to match text as a pattern.
func (b *Base) ExpectTitleContains(ctx context.Context, text string) error {
	re, err := regexp.Compile(text)
	if err != nil {
		return fmt.Errorf("title pattern: %w", err)
	}
	return b.poll(ctx, func(ctx context.Context) error {
		title, err := b.Driver.Title(ctx)
		if err != nil {
			return err
		}
		if !re.MatchString(title) {
			return &expect.AssertionError{Matcher: "toHaveTitle", Subject: "page", Expected: re.String(), Actual: title}
		}
		return nil
	})
}

// ExpectURL waits for the location to match re.
func (b *Base) ExpectURL(ctx context.Context, re *regexp.Regexp) error {
	return b.poll(ctx, func(ctx context.Context) error {
		u, err := b.Driver.URL(ctx)
		if err != nil {
			return err
		}
		if !re.MatchString(u) {
			return &expect.AssertionError{Matcher: "toHaveURL", Subject: "page", Expected: re.String(), Actual: u}
		}
		return nil
	})
}

// ExpectVisible waits for loc to be present and visible.
func (b *Base) ExpectVisible(ctx context.Context, loc browser.Locator) error {
	return b.poll(ctx, func(ctx context.Context) error {
		el, err := b.Driver.Query(ctx, loc)
		if err != nil {
			return err
		}
		if !el.Found || !el.Visible {
			return &expect.AssertionError{
				Matcher:  "toBeVisible",
				Subject:  loc.String(),
				Expected: "visible",
				Actual:   visibility(el),
			}
		}
		return nil
	})
}

func visibility(el browser.Element) string {
	switch {
	case !el.Found:
		return "not found"
	case !el.Visible:
		return "hidden"
	default:
		return "visible"
	}
}

// ExpectText waits for loc's trimmed text to equal want.
func (b *Base) ExpectText(ctx context.Context, loc browser.Locator, want string) error {
	return b.poll(ctx, func(ctx context.Context) error {
		el, err := b.Driver.Query(ctx, loc)
		if err != nil {
			return err
		}
		if !el.Found {
			return &expect.AssertionError{Matcher: "toHaveText", Subject: loc.String(), Expected: want, Actual: "element not found"}
		}
		return expect.Text(loc.String(), want, el.Text)
	})
}

// ExpectContainsText waits for loc's text to contain want.
func (b *Base) ExpectContainsText(ctx context.Context, loc browser.Locator, want string) error {
	return b.poll(ctx, func(ctx context.Context) error {
		el, err := b.Driver.Query(ctx, loc)
		if err != nil {
			return err
		}
		if !el.Found {
			return &expect.AssertionError{Matcher: "toContainText", Subject: loc.String(), Expected: want, Actual: "element not found"}
		}
		return expect.ContainsText(loc.String(), want, el.Text)
	})
}

// Count returns the number of elements matching loc right now.
func (b *Base) Count(ctx context.Context, loc browser.Locator) (int, error) {
	el, err := b.Driver.Query(ctx, loc)
	return el.Count, err
}

// TextOf returns loc's trimmed text, or "" when it does not exist.
func (b *Base) TextOf(ctx context.Context, loc browser.Locator) (string, error) {
	el, err := b.Driver.Query(ctx, loc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(el.Text), nil
}

// Fill types value into loc.
func (b *Base) Fill(ctx context.Context, loc browser.Locator, value string) error {
	return b.Driver.Fill(ctx, loc, value)
}

// ClickAndSettle clicks loc and waits for the resulting traffic to finish.
func (b *Base) ClickAndSettle(ctx context.Context, loc browser.Locator) error {
	if err := b.Driver.Click(ctx, loc); err != nil {
		return err
	}
	return b.WaitForPageLoad(ctx)
}

// WaitSelectReady waits for an AJAX-populated select to become visible and
// stop changing, and returns its options.
func (b *Base) WaitSelectReady(ctx context.Context, loc browser.Locator) ([]browser.Option, error) {
	if err := b.ExpectVisible(ctx, loc); err != nil {
		return nil, err
	}
	return browser.WaitStableOptions(ctx, b.Driver, loc, b.opts.PollInterval, b.opts.ExpectTimeout)
}

// SelectWhenAvailable waits until loc offers value, then selects it.
func (b *Base) SelectWhenAvailable(ctx context.Context, loc browser.Locator, value string) error {
	if err := browser.WaitForOption(ctx, b.Driver, loc, value, b.opts.PollInterval, b.opts.ExpectTimeout); err != nil {
		return err
	}
	return b.Driver.SelectOption(ctx, loc, value)
}

// ExpectSiteNavigationVisible checks the header and footer links.
func (b *Base) ExpectSiteNavigationVisible(ctx context.Context) error {
	for _, loc := range []browser.Locator{
		HeaderHomeLink, HeaderAboutUsLink, HeaderContactLink,
		FooterHomeLink, FooterAboutUsLink, FooterServicesLink, FooterContactUsLink, FooterSiteMapLink,
	} {
		if err := b.ExpectVisible(ctx, loc); err != nil {
			return err
		}
	}
	return nil
}
