package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

// Node is one element of a Fake page.
type Node struct {
	Text    string
	Value   string
	Hidden  bool
	Options []Option
	// OptionsAfter hides Options until the node has been queried this many
	// times, mimicking a select populated by a late XHR.
	OptionsAfter int
	// Children are descendants addressed by Locator.Inner.
	Children map[string]*Node

	reads int
}

func (n *Node) options() []Option {
	if n.reads <= n.OptionsAfter {
		return nil
	}
	return n.Options
}

// Page renders the current route into f.
type Page func(f *Fake)

// ClickFunc runs when a node is clicked. It is called without f's lock held.
type ClickFunc func(ctx context.Context, f *Fake) error

// Fake is an in-memory Driver whose pages are scripted by routes.
type Fake struct {
	mu      sync.Mutex
	origin  string
	url     string
	title   string
	nodes   map[string][]*Node
	clicks  map[string]ClickFunc
	routes  map[string]Page
	cookies map[string]*http.Cookie
	calls   []string
	closed  bool
}

var _ Driver = (*Fake)(nil)

// NewFake returns a Fake serving routes under origin, e.g. "http://parabank.test".
func NewFake(origin string) *Fake {
	return &Fake{
		origin:  strings.TrimRight(origin, "/"),
		url:     "about:blank",
		nodes:   make(map[string][]*Node),
		clicks:  make(map[string]ClickFunc),
		routes:  make(map[string]Page),
		cookies: make(map[string]*http.Cookie),
	}
}

// Route registers the page rendered for path.
func (f *Fake) Route(path string, p Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = p
}

// Origin returns the scheme and host the Fake serves.
func (f *Fake) Origin() string { return f.origin }

// Reset clears the rendered page before a new render.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = ""
	f.nodes = make(map[string][]*Node)
	f.clicks = make(map[string]ClickFunc)
}

// SetTitle sets document.title.
func (f *Fake) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

// SetNodes replaces every node matching selector.
func (f *Fake) SetNodes(selector string, nodes ...*Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[selector] = nodes
}

// SetText is shorthand for a single visible node with text.
func (f *Fake) SetText(selector, text string) {
	f.SetNodes(selector, &Node{Text: text})
}

// OnClick registers the handler for clicks on selector.
func (f *Fake) OnClick(selector string, fn ClickFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks[selector] = fn
}

// Value returns the current value of the first node matching selector.
func (f *Fake) Value(selector string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ns := f.nodes[selector]; len(ns) > 0 {
		return ns[0].Value
	}
	return ""
}

// Cookie returns the named cookie, or nil.
func (f *Fake) Cookie(name string) *http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cookies[name]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// Calls returns the driver calls made so far, e.g. "click #submit".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Goto renders path as if the browser had been redirected there.
func (f *Fake) Goto(path string) {
	f.mu.Lock()
	f.url = f.origin + path
	route, ok := f.routes[path]
	f.mu.Unlock()

	f.Reset()
	if !ok {
		f.SetTitle("404 Not Found")
		return
	}
	route(f)
}

// Navigate renders the route for u's path.
func (f *Fake) Navigate(ctx context.Context, u string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", u, err)
	}
	f.mu.Lock()
	f.record("navigate %s", parsed.Path)
	f.mu.Unlock()
	f.Goto(parsed.Path)
	return nil
}

// WaitNetworkIdle returns immediately; Fake pages have no background traffic.
func (f *Fake) WaitNetworkIdle(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("idle")
	return ctx.Err()
}

func (f *Fake) match(loc Locator) ([]*Node, *Node) {
	var matched []*Node
	for _, n := range f.nodes[loc.Selector] {
		if loc.HasText != "" && !strings.Contains(n.Text, loc.HasText) {
			continue
		}
		matched = append(matched, n)
	}
	if loc.Index < 0 || loc.Index >= len(matched) {
		return matched, nil
	}
	n := matched[loc.Index]
	if loc.Inner != "" {
		n = n.Children[loc.Inner]
	}
	return matched, n
}

// Query snapshots loc.
func (f *Fake) Query(ctx context.Context, loc Locator) (Element, error) {
	if err := ctx.Err(); err != nil {
		return Element{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	matched, n := f.match(loc)
	el := Element{Count: len(matched)}
	if n == nil {
		return el, nil
	}
	n.reads++
	el.Found = true
	el.Visible = !n.Hidden
	el.Text = n.Text
	el.Value = n.Value
	el.Options = append([]Option(nil), n.options()...)
	return el, nil
}

func missing(op string, loc Locator) error {
	return &expect.TimeoutError{Op: fmt.Sprintf("%s %s: element not found", op, loc)}
}

// Fill sets the value of the matched node.
func (f *Fake) Fill(ctx context.Context, loc Locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fill %s", loc)
	_, n := f.match(loc)
	if n == nil || n.Hidden {
		return missing("fill", loc)
	}
	n.Value = value
	return nil
}

// Click invokes the handler registered for the locator's selector.
func (f *Fake) Click(ctx context.Context, loc Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.record("click %s", loc)
	_, n := f.match(loc)
	fn := f.clicks[loc.Selector]
	f.mu.Unlock()

	if n == nil || n.Hidden {
		return missing("click", loc)
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, f)
}

// SelectOption selects value if the node currently offers it.
func (f *Fake) SelectOption(ctx context.Context, loc Locator, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select %s=%s", loc, value)
	_, n := f.match(loc)
	if n == nil || n.Hidden {
		return missing("select", loc)
	}
	for _, o := range n.options() {
		if o.Value == value {
			n.Value = value
			return nil
		}
	}
	return fmt.Errorf("select %s: option %q not found", loc, value)
}

// Title returns the page title.
func (f *Fake) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, ctx.Err()
}

// URL returns the current location.
func (f *Fake) URL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, ctx.Err()
}

// Cookies returns every stored cookie sorted by name.
func (f *Fake) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*http.Cookie, 0, len(f.cookies))
	for _, c := range f.cookies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, ctx.Err()
}

// SetCookies stores cookies, replacing any with the same name.
func (f *Fake) SetCookies(ctx context.Context, cookies []*http.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cookies {
		cp := *c
		if cp.MaxAge < 0 {
			delete(f.cookies, cp.Name)
			continue
		}
		f.cookies[cp.Name] = &cp
	}
	return ctx.Err()
}

// ClearCookies drops every cookie.
func (f *Fake) ClearCookies(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear cookies")
	f.cookies = make(map[string]*http.Cookie)
	return ctx.Err()
}

// Screenshot returns a placeholder image.
func (f *Fake) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []byte("\x89PNG fake " + f.url), ctx.Err()
}

// HTML renders the page's nodes as a flat document.
func (f *Fake) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sels := make([]string, 0, len(f.nodes))
	for s := range f.nodes {
		sels = append(sels, s)
	}
	sort.Strings(sels)
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body>\n", f.title)
	for _, s := range sels {
		for _, n := range f.nodes[s] {
			fmt.Fprintf(&b, "<!-- %s -->%s\n", s, n.Text)
		}
	}
	b.WriteString("</body></html>")
	return b.String(), ctx.Err()
}

// Close marks the Fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
