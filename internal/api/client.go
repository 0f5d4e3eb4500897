// Package api is the REST side of the hybrid suite. Requests can run in the
// browser's session, with cookies copied from the browser and any Set-Cookie
// written back, or in a bare context with no cookies at all.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// SessionSource is the cookie store of a browser session.
type SessionSource interface {
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	SetCookies(ctx context.Context, cookies []*http.Cookie) error
}

// Response is a received HTTP response with its body read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client talks to the ParaBank REST endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	session SessionSource
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying client. Its redirect policy is replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSession binds the client to a browser session from the start.
func WithSession(s SessionSource) Option {
	return func(c *Client) { c.session = s }
}

// New returns a Client for the site rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	c.logger = c.logger.WithPrefix("api")
	return c
}

// SetSession binds later session-aware requests to s. A nil s makes them
// run bare.
func (c *Client) SetSession(s SessionSource) {
	c.session = s
}

// BaseURL returns the site root.
func (c *Client) BaseURL() string { return c.baseURL }

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

type request struct {
	method  string
	path    string
	body    []byte
	header  http.Header
	session SessionSource
}

// do sends req. With a session, the browser's cookies go out through a
// per-request jar and any cookies the server sets are stored back.
func (c *Client) do(ctx context.Context, req request) (*Response, error) {
	target := c.baseURL + req.path
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", target, err)
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	hc := &http.Client{
		Transport:     c.http.Transport,
		Timeout:       c.http.Timeout,
		CheckRedirect: noRedirect,
	}
	if req.session != nil {
		jar, err := c.sessionJar(ctx, req.session, u)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}

	start := time.Now()
	resp, err := hc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", req.method, req.path, err)
	}
	c.logger.Debug("request", "method", req.method, "path", req.path, "status", resp.StatusCode,
		"session", req.session != nil, "duration", time.Since(start).Round(time.Millisecond))

	if req.session != nil {
		if set := resp.Cookies(); len(set) > 0 {
			if err := req.session.SetCookies(ctx, set); err != nil {
				return nil, fmt.Errorf("storing session cookies: %w", err)
			}
		}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) sessionJar(ctx context.Context, s SessionSource, u *url.URL) (http.CookieJar, error) {
	cookies, err := s.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading browser cookies: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	scoped := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		// The browser already filtered by origin; scope each one to u.
		cp := *ck
		cp.Domain = ""
		cp.Expires = time.Time{}
		cp.MaxAge = 0
		scoped = append(scoped, &cp)
	}
	jar.SetCookies(u, scoped)
	return jar, nil
}

// get issues a JSON GET, in the session when one is bound and useSession is
// set.
func (c *Client) get(ctx context.Context, path string, useSession bool) (*Response, error) {
	req := request{
		method: http.MethodGet,
		path:   path,
		header: http.Header{"Accept": []string{"application/json"}},
	}
	if useSession {
		req.session = c.session
	}
	return c.do(ctx, req)
}

// ErrNoSession is returned by operations that need a browser session.
var ErrNoSession = errors.New("no browser session bound")
