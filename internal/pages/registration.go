package pages

import (
	"context"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

var (
	regFirstName      = browser.CSS(`#customer\.firstName`)
	regLastName       = browser.CSS(`#customer\.lastName`)
	regStreet         = browser.CSS(`#customer\.address\.street`)
	regCity           = browser.CSS(`#customer\.address\.city`)
	regState          = browser.CSS(`#customer\.address\.state`)
	regZipCode        = browser.CSS(`#customer\.address\.zipCode`)
	regPhone          = browser.CSS(`#customer\.phoneNumber`)
	regSSN            = browser.CSS(`#customer\.ssn`)
	regUsername       = browser.CSS(`#customer\.username`)
	regPassword       = browser.CSS(`#customer\.password`)
	regConfirm        = browser.CSS(`#repeatedPassword`)
	regRegisterButton = browser.CSS(`input[type="submit"][value="Register"]`)

	regSuccessTitle   = rightPanelHeading
	regSuccessMessage = browser.CSS(`#rightPanel p`)
	regErrorMessages  = browser.CSS(`.error`)
)

// Registration is the new customer sign-up form.
type Registration struct {
	*Base
}

// NewRegistration returns the registration page.
func NewRegistration(b *Base) *Registration { return &Registration{Base: b} }

// Goto opens the registration form.
func (p *Registration) Goto(ctx context.Context) error {
	return p.Navigate(ctx, data.PathRegister)
}

// FillRegistrationForm fills every field, using the password for the
// confirmation field too.
func (p *Registration) FillRegistrationForm(ctx context.Context, u data.UserRegistrationData) error {
	fields := []struct {
		loc   browser.Locator
		value string
	}{
		{regFirstName, u.FirstName},
		{regLastName, u.LastName},
		{regStreet, u.Street},
		{regCity, u.City},
		{regState, u.State},
		{regZipCode, u.ZipCode},
		{regPhone, u.PhoneNumber},
		{regSSN, u.SSN},
		{regUsername, u.Username},
		{regPassword, u.Password},
		{regConfirm, u.Password},
	}
	for _, f := range fields {
		if err := p.Fill(ctx, f.loc, f.value); err != nil {
			return err
		}
	}
	return nil
}

// SubmitRegistration clicks Register and waits for the response.
func (p *Registration) SubmitRegistration(ctx context.Context) error {
	return p.ClickAndSettle(ctx, regRegisterButton)
}

// RegisterUser fills and submits the form.
func (p *Registration) RegisterUser(ctx context.Context, u data.UserRegistrationData) error {
	if err := p.FillRegistrationForm(ctx, u); err != nil {
		return err
	}
	return p.SubmitRegistration(ctx)
}

// ExpectRegistrationSuccess checks the welcome heading and the confirmation
// paragraph.
func (p *Registration) ExpectRegistrationSuccess(ctx context.Context, username string) error {
	if err := p.ExpectText(ctx, regSuccessTitle, "Welcome "+username); err != nil {
		return err
	}
	return p.ExpectContainsText(ctx, regSuccessMessage, "Your account was created successfully")
}

// ExpectRegistrationError waits for a validation message containing want.
func (p *Registration) ExpectRegistrationError(ctx context.Context, want string) error {
	return p.ExpectContainsText(ctx, regErrorMessages.WithText(want), want)
}
