package pages

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	transferAmount      = browser.CSS(`#amount`)
	transferFrom        = browser.CSS(`#fromAccountId`)
	transferTo          = browser.CSS(`#toAccountId`)
	transferButton      = browser.CSS(`input[type="submit"][value="Transfer"]`)
	transferSuccessHead = rightPanelHeading.WithText("Transfer Complete!")
)

// TransferFunds moves money between the customer's own accounts.
type TransferFunds struct {
	*Base
}

// NewTransferFunds returns the transfer page.
func NewTransferFunds(b *Base) *TransferFunds { return &TransferFunds{Base: b} }

// Goto opens the transfer form.
func (p *TransferFunds) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathTransfer)
}

// TransferFunds submits a transfer of amount from one account to another.
func (p *TransferFunds) TransferFunds(ctx context.Context, amount, from, to string) error {
	if _, err := p.WaitSelectReady(ctx, transferFrom); err != nil {
		return fmt.Errorf("waiting for source accounts: %w", err)
	}
	if err := p.Fill(ctx, transferAmount, amount); err != nil {
		return err
	}
	if err := p.SelectWhenAvailable(ctx, transferFrom, from); err != nil {
		return err
	}
	if err := p.SelectWhenAvailable(ctx, transferTo, to); err != nil {
		return err
	}
	return p.ClickAndSettle(ctx, transferButton)
}

// ExpectTransferComplete checks the confirmation heading.
func (p *TransferFunds) ExpectTransferComplete(ctx context.Context) error {
	return p.ExpectText(ctx, transferSuccessHead, "Transfer Complete!")
}
