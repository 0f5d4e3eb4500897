package pages

import (
	"context"
	"fmt"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	billPayName          = browser.CSS(`input[name="payee.name"]`)
	billPayStreet        = browser.CSS(`input[name="payee.address.street"]`)
	billPayCity          = browser.CSS(`input[name="payee.address.city"]`)
	billPayState         = browser.CSS(`input[name="payee.address.state"]`)
	billPayZipCode       = browser.CSS(`input[name="payee.address.zipCode"]`)
	billPayPhone         = browser.CSS(`input[name="payee.phoneNumber"]`)
	billPayAccount       = browser.CSS(`input[name="payee.accountNumber"]`)
	billPayVerifyAccount = browser.CSS(`input[name="verifyAccount"]`)
	billPayAmountInput   = browser.CSS(`input[name="amount"]`)
	billPayFrom          = browser.CSS(`select[name="fromAccountId"]`)
	billPaySendButton    = browser.CSS(`input[value="Send Payment"]`)
	billPaySuccessHead   = rightPanelHeading.WithText("Bill Payment Complete")
	billPayResultPayee   = browser.CSS(`#payeeName`)
	billPayResultAmount  = browser.CSS(`#amount`)
)

// BillPay pays a third-party payee from one of the customer's accounts.
type BillPay struct {
	*Base
}

// NewBillPay returns the bill pay page.
func NewBillPay(b *Base) *BillPay { return &BillPay{Base: b} }

// Goto opens the bill pay form.
func (p *BillPay) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathBillPay)
}

// FillBillPayForm fills the payee block, repeating the account number in the
// verify field.
func (p *BillPay) FillBillPayForm(ctx context.Context, payee data.BillPayeeInfo) error {
	fields := []struct {
		loc   browser.Locator
		value string
	}{
		{billPayName, payee.Name},
		{billPayStreet, payee.Street},
		{billPayCity, payee.City},
		{billPayState, payee.State},
		{billPayZipCode, payee.ZipCode},
		{billPayPhone, payee.PhoneNumber},
		{billPayAccount, payee.AccountNumber},
		{billPayVerifyAccount, payee.AccountNumber},
		{billPayAmountInput, payee.Amount},
	}
	for _, f := range fields {
		if err := p.Fill(ctx, f.loc, f.value); err != nil {
			return err
		}
	}
	return nil
}

// PayBill fills the form, picks the source account and sends the payment.
func (p *BillPay) PayBill(ctx context.Context, payee data.BillPayeeInfo, from string) error {
	if _, err := p.WaitSelectReady(ctx, billPayFrom); err != nil {
		return fmt.Errorf("waiting for source accounts: %w", err)
	}
	if err := p.FillBillPayForm(ctx, payee); err != nil {
		return err
	}
	if err := p.SelectWhenAvailable(ctx, billPayFrom, from); err != nil {
		return err
	}
	return p.ClickAndSettle(ctx, billPaySendButton)
}

// ExpectPaymentSuccess checks the confirmation heading.
func (p *BillPay) ExpectPaymentSuccess(ctx context.Context) error {
	return p.ExpectText(ctx, billPaySuccessHead, "Bill Payment Complete")
}

// ExpectPaymentDetails checks the payee and the amount rendered as currency.
func (p *BillPay) ExpectPaymentDetails(ctx context.Context, payeeName, amount string) error {
	if err := p.ExpectText(ctx, billPayResultPayee, payeeName); err != nil {
		return err
	}
	formatted, err := data.FormatCurrency(amount)
	if err != nil {
		return fmt.Errorf("payment amount: %w", err)
	}
	return p.ExpectText(ctx, billPayResultAmount, formatted)
}
