package fixture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/config"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
	"github.com/Dicklesworthstone/parabank-qa/internal/parabanktest"
)

const origin = "http://parabank.test"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.BaseURL = origin + "/"
	cfg.Timeouts.Expect = 500 * time.Millisecond
	cfg.Timeouts.SettlePoll = 10 * time.Millisecond
	return cfg
}

func fakeFactory(fake *browser.Fake) Factory {
	return func(context.Context) (*Fixtures, error) {
		return New(fake, testConfig()), nil
	}
}

type failingCloser struct {
	*browser.Fake
}

func (failingCloser) Close() error { return errors.New("tab crashed") }

func TestNew_BindsPagesToDriver(t *testing.T) {
	t.Parallel()

	ui := parabanktest.NewUI(parabanktest.NewBank(), origin)
	f := New(ui.Fake, testConfig())

	if f.API.BaseURL() != origin {
		t.Errorf("API base = %q", f.API.BaseURL())
	}
	if f.Base.BaseURL() != origin {
		t.Errorf("page base = %q", f.Base.BaseURL())
	}

	ctx := context.Background()
	if err := f.Login.Goto(ctx); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	if err := f.Login.ExpectLoginFormVisible(ctx); err != nil {
		t.Fatalf("login form: %v", err)
	}
	if got, _ := ui.Fake.URL(ctx); !strings.HasSuffix(got, data.PathIndex) {
		t.Errorf("url = %q", got)
	}
}

func TestRun_ClosesOnSuccess(t *testing.T) {
	t.Parallel()

	fake := browser.NewFake(origin)
	called := false
	err := Run(context.Background(), fakeFactory(fake), func(_ context.Context, f *Fixtures) error {
		called = true
		if f.Driver != browser.Driver(fake) {
			t.Error("fixtures not bound to the factory's driver")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called || !fake.Closed() {
		t.Fatalf("called=%v closed=%v", called, fake.Closed())
	}
}

func TestRun_ClosesOnError(t *testing.T) {
	t.Parallel()

	fake := browser.NewFake(origin)
	want := errors.New("step failed")
	err := Run(context.Background(), fakeFactory(fake), func(context.Context, *Fixtures) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if !fake.Closed() {
		t.Fatal("driver not closed after failure")
	}
}

func TestRun_ClosesOnPanic(t *testing.T) {
	t.Parallel()

	fake := browser.NewFake(origin)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = Run(context.Background(), fakeFactory(fake), func(context.Context, *Fixtures) error {
			panic("boom")
		})
	}()
	if !fake.Closed() {
		t.Fatal("driver not closed after panic")
	}
}

func TestRun_JoinsCloseError(t *testing.T) {
	t.Parallel()

	factory := func(context.Context) (*Fixtures, error) {
		return New(failingCloser{browser.NewFake(origin)}, testConfig()), nil
	}
	err := Run(context.Background(), factory, func(context.Context, *Fixtures) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "tab crashed") {
		t.Fatalf("expected close error, got %v", err)
	}
}

func TestRun_FactoryError(t *testing.T) {
	t.Parallel()

	want := errors.New("no chrome")
	called := false
	err := Run(context.Background(), func(context.Context) (*Fixtures, error) { return nil, want },
		func(context.Context, *Fixtures) error { called = true; return nil })
	if !errors.Is(err, want) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	fake := browser.NewFake(origin)
	f := New(fake, testConfig())
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
