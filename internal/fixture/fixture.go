// Package fixture composes the per-test dependencies of a journey: one
// browser session plus every page object and the API helper bound to it.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/parabank-qa/internal/api"
	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/logging"
	"github.com/Dicklesworthstone/parabank-qa/internal/pages"
)

// Fixtures is scoped to a single browser session.
type Fixtures struct {
	Driver browser.Driver
	Config *config.Config
	Logger *log.Logger

	Base             *pages.Base
	Login            *pages.Login
	Registration     *pages.Registration
	Home             *pages.Home
	AccountsOverview *pages.AccountsOverview
	OpenAccount      *pages.OpenAccount
	TransferFunds    *pages.TransferFunds
	BillPay          *pages.BillPay
	API              *api.Client

	closeOnce sync.Once
	closeErr  error
}

// Option customizes composition.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	logger     *log.Logger
}

// WithHTTPClient routes API helper traffic through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithLogger sets the logger handed to components.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New binds the page objects and API helper to drv. The API helper shares
// drv's session.
func New(drv browser.Driver, cfg *config.Config, opts ...Option) *Fixtures {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	base := pages.NewBase(drv, pages.Options{
		BaseURL:       cfg.BaseURL,
		ExpectTimeout: cfg.Timeouts.Expect,
		PollInterval:  cfg.Timeouts.SettlePoll,
	})

	apiOpts := []api.Option{api.WithLogger(s.logger), api.WithSession(drv)}
	if s.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(s.httpClient))
	}

	return &Fixtures{
		Driver:           drv,
		Config:           cfg,
		Logger:           s.logger,
		Base:             base,
		Login:            pages.NewLogin(base),
		Registration:     pages.NewRegistration(base),
		Home:             pages.NewHome(base),
		AccountsOverview: pages.NewAccountsOverview(base),
		OpenAccount:      pages.NewOpenAccount(base),
		TransferFunds:    pages.NewTransferFunds(base),
		BillPay:          pages.NewBillPay(base),
		API:              api.New(base.BaseURL(), apiOpts...),
	}
}

// NewChrome launches a Chrome session configured from cfg and composes
// fixtures over it.
func NewChrome(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Fixtures, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	drv, err := browser.NewChrome(ctx, browser.ChromeOptions{
		Headless:          cfg.Browser.Headless,
		ExecPath:          cfg.Browser.ExecPath,
		WindowWidth:       cfg.Browser.WindowWidth,
		WindowHeight:      cfg.Browser.WindowHeight,
		NoSandbox:         cfg.Browser.NoSandbox,
		ActionTimeout:     cfg.Timeouts.Action,
		NavigationTimeout: cfg.Timeouts.Navigation,
		IdleWindow:        cfg.Timeouts.NetworkIdle,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("launching chrome: %w", err)
	}
	return New(drv, cfg, WithLogger(logger)), nil
}

// Close releases the browser session. It is safe to call more than once.
func (f *Fixtures) Close() error {
	f.closeOnce.Do(func() {
		f.closeErr = f.Driver.Close()
	})
	return f.closeErr
}

// Factory creates fixtures for one attempt.
type Factory func(ctx context.Context) (*Fixtures, error)

// ChromeFactory returns a Factory that launches Chrome per attempt.
func ChromeFactory(cfg *config.Config, logger *log.Logger) Factory {
	return func(ctx context.Context) (*Fixtures, error) {
		return NewChrome(ctx, cfg, logger)
	}
}

// Run creates fixtures, passes them to fn and closes them afterwards, even
// when fn fails or panics. A close error is joined to fn's error.
func Run(ctx context.Context, factory Factory, fn func(context.Context, *Fixtures) error) (err error) {
	f, err := factory(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing fixtures: %w", cerr))
		}
	}()
	return fn(ctx, f)
}
