// Package data produces the test inputs for the ParaBank journey: randomized
// registration payloads, the default bill payee and shared formatting helpers.
package data

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPassword is the password assigned to every generated user.
const DefaultPassword = "Test@1234"

// UsernamePrefix prefixes every generated username.
const UsernamePrefix = "parauser"

const (
	zipDigits      = 5
	phoneDigits    = 10
	ssnDigits      = 9
	usernameDigits = 9
	streetDigits   = 4
)

// UserRegistrationData is the full set of fields the registration form accepts.
type UserRegistrationData struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	PhoneNumber string `json:"phoneNumber"`
	SSN         string `json:"ssn"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// Form encodes the user as the registration form body, including the
// repeated password confirmation.
func (u UserRegistrationData) Form() url.Values {
	v := url.Values{}
	v.Set("customer.firstName", u.FirstName)
	v.Set("customer.lastName", u.LastName)
	v.Set("customer.address.street", u.Street)
	v.Set("customer.address.city", u.City)
	v.Set("customer.address.state", u.State)
	v.Set("customer.address.zipCode", u.ZipCode)
	v.Set("customer.phoneNumber", u.PhoneNumber)
	v.Set("customer.ssn", u.SSN)
	v.Set("customer.username", u.Username)
	v.Set("customer.password", u.Password)
	v.Set("repeatedPassword", u.Password)
	return v
}

// BillPayeeInfo describes a bill pay destination.
type BillPayeeInfo struct {
	Name          string `json:"name"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	PhoneNumber   string `json:"phoneNumber"`
	AccountNumber string `json:"accountNumber"`
	Amount        string `json:"amount"`
}

// Generator creates randomized test data from a random source.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a Generator drawing from src. Not safe for concurrent use.
func NewGenerator(src rand.Source) *Generator {
	r := rand.New(src)
	return &Generator{intN: r.IntN}
}

var defaultGenerator = &Generator{intN: rand.IntN}

// GenerateUser returns a fresh registration payload using the global source.
func GenerateUser() UserRegistrationData {
	return defaultGenerator.User()
}

// RandomDigits returns n random decimal digits.
func RandomDigits(n int) string {
	return defaultGenerator.Digits(n)
}

// RandomString returns n random lowercase alphanumeric characters.
func RandomString(n int) string {
	return defaultGenerator.String(n)
}

// User returns a registration payload whose username, street number, zip,
// phone and SSN are random.
func (g *Generator) User() UserRegistrationData {
	return UserRegistrationData{
		FirstName:   "Test",
		LastName:    "User",
		Street:      g.Digits(streetDigits) + " Automation Ave",
		City:        "TestCity",
		State:       "CA",
		ZipCode:     g.Digits(zipDigits),
		PhoneNumber: g.Digits(phoneDigits),
		SSN:         g.Digits(ssnDigits),
		Username:    UsernamePrefix + g.Digits(usernameDigits),
		Password:    DefaultPassword,
	}
}

// Digits returns n random decimal digits. Leading zeros are allowed.
func (g *Generator) Digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.intN(10)))
	}
	return b.String()
}

const alphanumerics = "abcdefghijklmnopqrstuvwxyz0123456789"

// String returns n random lowercase alphanumeric characters.
func (g *Generator) String(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanumerics[g.intN(len(alphanumerics))])
	}
	return b.String()
}

// FormatCurrency renders a decimal amount string as dollars with two places,
// e.g. "50" becomes "$50.00".
func FormatCurrency(amount string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("format currency %q: %w", amount, err)
	}
	return "$" + d.StringFixed(2), nil
}
