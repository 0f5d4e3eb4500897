package pages

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

var (
	overviewTable        = browser.CSS(`#accountTable`)
	overviewRows         = browser.CSS(`#accountTable tbody tr`)
	overviewAccountLinks = browser.CSS(`#accountTable tbody tr td a`)
	overviewTotalBalance = overviewRows.WithText("Total").Locate(`td:nth-child(2)`)
)

// AccountsOverview lists the customer's accounts and balances.
type AccountsOverview struct {
	*Base
}

// NewAccountsOverview returns the accounts overview page.
func NewAccountsOverview(b *Base) *AccountsOverview { return &AccountsOverview{Base: b} }

// Goto opens the overview.
func (p *AccountsOverview) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathOverview)
}

// ExpectPageTitle checks the heading reads "Accounts Overview".
func (p *AccountsOverview) ExpectPageTitle(ctx context.Context) error {
	return p.ExpectText(ctx, rightPanelHeading, "Accounts Overview")
}

// ExpectAccountsTableVisible waits for the account table.
func (p *AccountsOverview) ExpectAccountsTableVisible(ctx context.Context) error {
	return p.ExpectVisible(ctx, overviewTable)
}

// AccountCount returns the number of account links in the table.
func (p *AccountsOverview) AccountCount(ctx context.Context) (int, error) {
	return p.Count(ctx, overviewAccountLinks)
}

// AccountNumber returns the account id in row i, or "" if there is none.
func (p *AccountsOverview) AccountNumber(ctx context.Context, i int) (string, error) {
	return p.TextOf(ctx, overviewAccountLinks.Nth(i))
}

// AccountBalance returns the balance cell of row i as displayed.
func (p *AccountsOverview) AccountBalance(ctx context.Context, i int) (string, error) {
	return p.TextOf(ctx, overviewRows.Nth(i).Locate(`td:nth-child(2)`))
}

// ExpectAccountExists waits for a link whose text contains id.
func (p *AccountsOverview) ExpectAccountExists(ctx context.Context, id string) error {
	if id == "" {
		return &expect.AssertionError{Matcher: "toBeVisible", Subject: "#accountTable a", Message: "empty account id"}
	}
	return p.ExpectVisible(ctx, browser.CSS(`#accountTable a`).WithText(id))
}

// ExpectTotalBalanceVisible waits for the Total row's balance cell.
func (p *AccountsOverview) ExpectTotalBalanceVisible(ctx context.Context) error {
	return p.ExpectVisible(ctx, overviewTotalBalance)
}

// ExpectBalanceDetailsDisplayed checks the table has at least one account and
// a total.
func (p *AccountsOverview) ExpectBalanceDetailsDisplayed(ctx context.Context) error {
	if err := p.ExpectAccountsTableVisible(ctx); err != nil {
		return err
	}
	err := p.poll(ctx, func(ctx context.Context) error {
		n, err := p.AccountCount(ctx)
		if err != nil {
			return err
		}
		return expect.Greater("account count", n, 0)
	})
	if err != nil {
		return fmt.Errorf("accounts table: %w", err)
	}
	return p.ExpectTotalBalanceVisible(ctx)
}

// ExpectAccountsTableHidden fails if the account table is rendered, as it is
// for any request carrying a logged-in session.
func (p *AccountsOverview) ExpectAccountsTableHidden(ctx context.Context) error {
	n, err := p.Count(ctx, overviewTable)
	if err != nil {
		return err
	}
	if n != 0 {
		return &expect.AssertionError{Matcher: "not.toBeVisible", Subject: overviewTable.String(), Expected: 0, Actual: n}
	}
	return nil
}

// WaitForAccountNumber polls until row i has an account link and returns
// its text. The table is filled in by a background request after load.
func (p *AccountsOverview) WaitForAccountNumber(ctx context.Context, i int) (string, error) {
	var id string
	err := p.poll(ctx, func(ctx context.Context) error {
		var err error
		if id, err = p.AccountNumber(ctx, i); err != nil {
			return err
		}
		return expect.NonEmpty(fmt.Sprintf("account number %d", i), id)
	})
	return id, err
}
