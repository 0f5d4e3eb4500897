package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

// ChromeOptions configures a Chrome session.
type ChromeOptions struct {
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	NoSandbox    bool

	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	// IdleWindow is how long the network must stay quiet to count as idle.
	IdleWindow time.Duration

	Logger *log.Logger
}

func (o *ChromeOptions) defaults() {
	if o.WindowWidth <= 0 {
		o.WindowWidth = 1280
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = 720
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 15 * time.Second
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.IdleWindow <= 0 {
		o.IdleWindow = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Chrome drives one browser tab through the DevTools protocol.
type Chrome struct {
	opts        ChromeOptions
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	idle        *idleTracker
	tags        atomic.Uint64
	logger      *log.Logger
}

var _ Driver = (*Chrome)(nil)

// NewChrome launches Chrome and opens a tab with network tracking enabled.
func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	opts.defaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	logger := opts.Logger.WithPrefix("browser")
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debugf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Warnf(format, args...)
		}),
	)

	c := &Chrome{
		opts:        opts,
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		idle:        newIdleTracker(),
		logger:      logger,
	}

	chromedp.ListenTarget(tabCtx, c.onEvent)

	// The first Run allocates the browser, so it must use the tab context
	// itself and not a deadline-bound child.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}
	logger.Info("chrome started", "headless", opts.Headless, "window", fmt.Sprintf("%dx%d", opts.WindowWidth, opts.WindowHeight))
	return c, nil
}

func (c *Chrome) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		c.idle.start(string(e.RequestID))
	case *network.EventLoadingFinished:
		c.idle.finish(string(e.RequestID))
	case *network.EventLoadingFailed:
		c.idle.finish(string(e.RequestID))
	case *runtime.EventConsoleAPICalled:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			if len(arg.Value) > 0 {
				parts = append(parts, string(arg.Value))
			} else if arg.Description != "" {
				parts = append(parts, arg.Description)
			}
		}
		c.logger.Debug("console", "type", e.Type, "message", strings.Join(parts, " "))
	}
}

// run executes actions on the tab bounded by timeout and by the caller's ctx.
func (c *Chrome) run(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &expect.TimeoutError{Op: op, Err: ctx.Err()}
		}
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &expect.TimeoutError{Op: op, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Navigate loads url and waits for the load event.
func (c *Chrome) Navigate(ctx context.Context, u string) error {
	c.logger.Debug("navigate", "url", u)
	return c.run(ctx, "navigate "+u, c.opts.NavigationTimeout, chromedp.Navigate(u))
}

// WaitNetworkIdle blocks until no request has been in flight for the idle
// window and the document has finished loading.
func (c *Chrome) WaitNetworkIdle(ctx context.Context) error {
	timeout := c.opts.NavigationTimeout
	return c.run(ctx, "wait for network idle", timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			if c.idle.quietFor(time.Now()) >= c.opts.IdleWindow {
				var state string
				if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err != nil {
					return err
				}
				if state == "complete" {
					return nil
				}
			}
			select {
			case <-ctx.Done():
				c.logger.Warn("network never went idle", "pending", c.idle.pending())
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}))
}

const inspectScript = `(function(sel, hasText, index, inner, tag) {
	let nodes = Array.from(document.querySelectorAll(sel));
	if (hasText) {
		nodes = nodes.filter(n => (n.innerText || n.textContent || '').includes(hasText));
	}
	const out = {count: nodes.length, found: false, visible: false, text: '', value: '', options: []};
	let n = nodes[index];
	if (n && inner) { n = n.querySelector(inner); }
	if (!n) { return out; }
	out.found = true;
	const style = window.getComputedStyle(n);
	const rect = n.getBoundingClientRect();
	out.visible = style.visibility !== 'hidden' && style.display !== 'none' && (rect.width > 0 || rect.height > 0);
	out.text = (n.innerText !== undefined ? n.innerText : n.textContent) || '';
	if ('value' in n && n.value !== undefined && n.value !== null) { out.value = String(n.value); }
	if (n.tagName === 'SELECT') {
		out.options = Array.from(n.options).map(o => ({value: o.value, label: o.text}));
	}
	if (tag) {
		document.querySelectorAll('[data-qa-target]').forEach(e => e.removeAttribute('data-qa-target'));
		n.setAttribute('data-qa-target', tag);
	}
	return out;
})(%s, %s, %d, %s, %s)`

func inspectExpr(loc Locator, tag string) (string, error) {
	sel, err := json.Marshal(loc.Selector)
	if err != nil {
		return "", err
	}
	text, err := json.Marshal(loc.HasText)
	if err != nil {
		return "", err
	}
	inner, err := json.Marshal(loc.Inner)
	if err != nil {
		return "", err
	}
	t, err := json.Marshal(tag)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(inspectScript, sel, text, loc.Index, inner, t), nil
}

// Query snapshots loc without waiting for it.
func (c *Chrome) Query(ctx context.Context, loc Locator) (Element, error) {
	expr, err := inspectExpr(loc, "")
	if err != nil {
		return Element{}, err
	}
	var el Element
	err = c.run(ctx, "query "+loc.String(), c.opts.ActionTimeout, chromedp.Evaluate(expr, &el))
	return el, err
}

// resolve waits until loc matches and tags the match so chromedp can address
// it with the returned plain selector.
func (c *Chrome) resolve(loc Locator) (string, chromedp.Action) {
	tag := fmt.Sprintf("t%d", c.tags.Add(1))
	sel := fmt.Sprintf(`[data-qa-target=%q]`, tag)
	return sel, chromedp.ActionFunc(func(ctx context.Context) error {
		expr, err := inspectExpr(loc, tag)
		if err != nil {
			return err
		}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			var el Element
			if err := chromedp.Evaluate(expr, &el).Do(ctx); err != nil {
				return err
			}
			if el.Found {
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("waiting for %s: %w", loc, ctx.Err())
			case <-ticker.C:
			}
		}
	})
}

// Fill replaces the value of an input.
func (c *Chrome) Fill(ctx context.Context, loc Locator, value string) error {
	sel, resolve := c.resolve(loc)
	return c.run(ctx, "fill "+loc.String(), c.opts.ActionTimeout,
		resolve,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
}

// Click clicks the element once it is visible.
func (c *Chrome) Click(ctx context.Context, loc Locator) error {
	sel, resolve := c.resolve(loc)
	return c.run(ctx, "click "+loc.String(), c.opts.ActionTimeout,
		resolve,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

const selectScript = `(function(sel, value) {
	const n = document.querySelector(sel);
	if (!n || n.tagName !== 'SELECT') { return false; }
	if (!Array.from(n.options).some(o => o.value === value)) { return false; }
	n.value = value;
	n.dispatchEvent(new Event('input', {bubbles: true}));
	n.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})(%s, %s)`

// SelectOption selects the option whose value is value.
func (c *Chrome) SelectOption(ctx context.Context, loc Locator, value string) error {
	target, resolve := c.resolve(loc)
	return c.run(ctx, "select "+loc.String(), c.opts.ActionTimeout,
		resolve,
		chromedp.ActionFunc(func(ctx context.Context) error {
			sel, err := json.Marshal(target)
			if err != nil {
				return err
			}
			v, err := json.Marshal(value)
			if err != nil {
				return err
			}
			var ok bool
			if err := chromedp.Evaluate(fmt.Sprintf(selectScript, sel, v), &ok).Do(ctx); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("option %q not found", value)
			}
			return nil
		}),
	)
}

// Title returns document.title.
func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	err := c.run(ctx, "title", c.opts.ActionTimeout, chromedp.Title(&title))
	return title, err
}

// URL returns the current location.
func (c *Chrome) URL(ctx context.Context) (string, error) {
	var loc string
	err := c.run(ctx, "url", c.opts.ActionTimeout, chromedp.Location(&loc))
	return loc, err
}

// Cookies returns the cookies visible to the current page.
func (c *Chrome) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var raw []*network.Cookie
	err := c.run(ctx, "get cookies", c.opts.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	out := make([]*http.Cookie, 0, len(raw))
	for _, ck := range raw {
		hc := &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HttpOnly: ck.HTTPOnly,
		}
		if !ck.Session && ck.Expires > 0 {
			hc.Expires = time.Unix(int64(ck.Expires), 0)
		}
		out = append(out, hc)
	}
	return out, nil
}

// SetCookies stores cookies in the browser. Cookies without a domain are
// scoped to the current page's origin.
func (c *Chrome) SetCookies(ctx context.Context, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	current, err := c.URL(ctx)
	if err != nil {
		return err
	}
	origin := ""
	if u, err := url.Parse(current); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		p := &network.CookieParam{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HttpOnly,
		}
		if ck.Domain != "" {
			p.Domain = ck.Domain
		} else {
			p.URL = origin
		}
		if p.Path == "" {
			p.Path = "/"
		}
		params = append(params, p)
	}
	return c.run(ctx, "set cookies", c.opts.ActionTimeout, network.SetCookies(params))
}

// ClearCookies removes every cookie from the browser.
func (c *Chrome) ClearCookies(ctx context.Context) error {
	return c.run(ctx, "clear cookies", c.opts.ActionTimeout, network.ClearBrowserCookies())
}

// Screenshot captures the viewport as PNG.
func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, "screenshot", c.opts.ActionTimeout, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// HTML returns the serialized document.
func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, "html snapshot", c.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close shuts the tab and the browser process.
func (c *Chrome) Close() error {
	c.cancel()
	c.allocCancel()
	c.logger.Debug("chrome closed")
	return nil
}
