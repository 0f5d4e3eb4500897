package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	homeWelcomeMessage = browser.CSS(`#leftPanel .smallText`)

	homeOpenNewAccountLink    = browser.CSS(`a[href*="openaccount.htm"]`)
	homeAccountsOverviewLink  = browser.CSS(`a[href*="overview.htm"]`)
	homeTransferFundsLink     = browser.CSS(`a[href*="transfer.htm"]`)
	homeBillPayLink           = browser.CSS(`a[href*="billpay.htm"]`)
	homeFindTransactionsLink  = browser.CSS(`a[href*="findtrans.htm"]`)
	homeUpdateContactInfoLink = browser.CSS(`a[href*="updateprofile.htm"]`)
	homeRequestLoanLink       = browser.CSS(`a[href*="requestloan.htm"]`)
	homeLogOutLink            = browser.CSS(`a[href*="logout.htm"]`)
)

// navLinks are the account services links and where each one lands.
var navLinks = []struct {
	loc browser.Locator
	url *regexp.Regexp
}{
	{homeOpenNewAccountLink, regexp.MustCompile(`openaccount`)},
	{homeAccountsOverviewLink, regexp.MustCompile(`overview`)},
	{homeTransferFundsLink, regexp.MustCompile(`transfer`)},
	{homeBillPayLink, regexp.MustCompile(`billpay`)},
	{homeFindTransactionsLink, regexp.MustCompile(`findtrans`)},
	{homeUpdateContactInfoLink, regexp.MustCompile(`updateprofile`)},
	{homeRequestLoanLink, regexp.MustCompile(`requestloan`)},
}

// Home is the logged-in landing area with the account services menu.
type Home struct {
	*Base
}

// NewHome returns the home page.
func NewHome(b *Base) *Home { return &Home{Base: b} }

// Goto opens the index page.
func (p *Home) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathIndex)
}

// ExpectLoggedIn waits for the customer greeting in the left panel.
func (p *Home) ExpectLoggedIn(ctx context.Context) error {
	return p.ExpectVisible(ctx, homeWelcomeMessage)
}

// WelcomeText returns the greeting, e.g. "Welcome Test User".
func (p *Home) WelcomeText(ctx context.Context) (string, error) {
	return p.TextOf(ctx, homeWelcomeMessage)
}

// ExpectNavigationMenuVisible checks all eight account services links.
func (p *Home) ExpectNavigationMenuVisible(ctx context.Context) error {
	for _, l := range navLinks {
		if err := p.ExpectVisible(ctx, l.loc); err != nil {
			return err
		}
	}
	return p.ExpectVisible(ctx, homeLogOutLink)
}

// VerifyNavigationLinks clicks each account services link in turn and
// checks the landing URL. Log out is not clicked.
func (p *Home) VerifyNavigationLinks(ctx context.Context) error {
	for _, l := range navLinks {
		if err := p.ClickAndSettle(ctx, l.loc); err != nil {
			return fmt.Errorf("navigating via %s: %w", l.loc, err)
		}
		if err := p.ExpectURL(ctx, l.url); err != nil {
			return err
		}
	}
	return nil
}

// GoToOpenNewAccount follows the Open New Account link.
func (p *Home) GoToOpenNewAccount(ctx context.Context) error {
	return p.ClickAndSettle(ctx, homeOpenNewAccountLink)
}

// GoToAccountsOverview follows the Accounts Overview link.
func (p *Home) GoToAccountsOverview(ctx context.Context) error {
	return p.ClickAndSettle(ctx, homeAccountsOverviewLink)
}

// GoToTransferFunds follows the Transfer Funds link.
func (p *Home) GoToTransferFunds(ctx context.Context) error {
	return p.ClickAndSettle(ctx, homeTransferFundsLink)
}

// GoToBillPay follows the Bill Pay link.
func (p *Home) GoToBillPay(ctx context.Context) error {
	return p.ClickAndSettle(ctx, homeBillPayLink)
}

// Logout follows the Log Out link.
func (p *Home) Logout(ctx context.Context) error {
	return p.ClickAndSettle(ctx, homeLogOutLink)
}
