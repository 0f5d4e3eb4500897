package pages

import (
	"context"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	loginUsernameInput = browser.CSS(`input[name="username"]`)
	loginPasswordInput = browser.CSS(`input[name="password"]`)
	loginButton        = browser.CSS(`input[type="submit"][value="Log In"]`)
	loginRegisterLink  = browser.CSS(`a[href*="register.htm"]`)
	loginForgotLink    = browser.CSS(`a[href*="lookup.htm"]`)
	loginErrorMessage  = browser.CSS(`.error`)
)

// Login is the customer login panel on the index page.
type Login struct {
	*Base
}

// NewLogin returns the login page.
func NewLogin(b *Base) *Login { return &Login{Base: b} }

// Goto opens the index page.
func (p *Login) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathIndex)
}

// Login submits credentials and waits for the response to settle.
func (p *Login) Login(ctx context.Context, username, password string) error {
	if err := p.Fill(ctx, loginUsernameInput, username); err != nil {
		return err
	}
	if err := p.Fill(ctx, loginPasswordInput, password); err != nil {
		return err
	}
	return p.ClickAndSettle(ctx, loginButton)
}

// GoToRegistration follows the register link.
func (p *Login) GoToRegistration(ctx context.Context) error {
	return p.ClickAndSettle(ctx, loginRegisterLink)
}

// GoToForgotLogin follows the customer lookup link.
func (p *Login) GoToForgotLogin(ctx context.Context) error {
	return p.ClickAndSettle(ctx, loginForgotLink)
}

// ExpectLoginFormVisible checks both inputs and the submit button.
func (p *Login) ExpectLoginFormVisible(ctx context.Context) error {
	for _, loc := range []browser.Locator{loginUsernameInput, loginPasswordInput, loginButton} {
		if err := p.ExpectVisible(ctx, loc); err != nil {
			return err
		}
	}
	return nil
}

// ExpectLoginError waits for the error panel and checks it mentions want.
func (p *Login) ExpectLoginError(ctx context.Context, want string) error {
	if err := p.ExpectVisible(ctx, loginErrorMessage); err != nil {
		return err
	}
	if want == "" {
		return nil
	}
	return p.ExpectContainsText(ctx, loginErrorMessage, want)
}
