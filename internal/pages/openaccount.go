package pages

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	openAccountType        = browser.CSS(`#type`)
	openAccountFrom        = browser.CSS(`#fromAccountId`)
	openAccountButton      = browser.CSS(`input[type="button"][value="Open New Account"]`)
	openAccountNewID       = browser.CSS(`#newAccountId`)
	openAccountSuccessHead = rightPanelHeading.WithText("Account Opened!")
)

// OpenAccount is the Open New Account form.
type OpenAccount struct {
	*Base
}

// NewOpenAccount returns the open account page.
func NewOpenAccount(b *Base) *OpenAccount { return &OpenAccount{Base: b} }

// Goto opens the form.
func (p *OpenAccount) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathOpenAccount)
}

// OpenSavingsAccount opens a savings account funded from the default account
// and returns the new account id.
func (p *OpenAccount) OpenSavingsAccount(ctx context.Context) (string, error) {
	return p.open(ctx, data.AccountTypeSavings)
}

// OpenCheckingAccount opens a checking account and returns its id.
func (p *OpenAccount) OpenCheckingAccount(ctx context.Context) (string, error) {
	return p.open(ctx, data.AccountTypeChecking)
}

func (p *OpenAccount) open(ctx context.Context, accountType string) (string, error) {
	// Both selects are filled by XHR after the page loads.
	if _, err := p.WaitSelectReady(ctx, openAccountFrom); err != nil {
		return "", fmt.Errorf("waiting for funding accounts: %w", err)
	}
	if err := p.SelectWhenAvailable(ctx, openAccountType, accountType); err != nil {
		return "", err
	}
	if err := p.ClickAndSettle(ctx, openAccountButton); err != nil {
		return "", err
	}
	if err := p.ExpectVisible(ctx, openAccountNewID); err != nil {
		return "", err
	}
	return p.TextOf(ctx, openAccountNewID)
}

// ExpectAccountOpened checks the confirmation heading and the new id.
func (p *OpenAccount) ExpectAccountOpened(ctx context.Context) error {
	if err := p.ExpectText(ctx, openAccountSuccessHead, "Account Opened!"); err != nil {
		return err
	}
	return p.ExpectVisible(ctx, openAccountNewID)
}
