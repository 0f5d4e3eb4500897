// Package parabanktest is an in-memory ParaBank: a bank model, an HTTP
// server exposing the registration form and the REST account endpoints, and
// a scripted UI for browser.Fake. Tests drive the page objects, the API
// helper and the journey against it without a real site or browser.
package parabanktest

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionCookie is the servlet session cookie ParaBank uses.
const SessionCookie = "JSESSIONID"

// InitialBalance is credited to a new customer's first account.
var InitialBalance = decimal.RequireFromString("515.50")

// MinimumOpeningDeposit moves from the funding account into a new account.
var MinimumOpeningDeposit = decimal.NewFromInt(100)

// Errors returned by Bank operations.
var (
	ErrUnknownAccount    = errors.New("could not find account")
	ErrNotOwner          = errors.New("account belongs to another customer")
	ErrInvalidAmount     = errors.New("please enter a valid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownSession    = errors.New("unknown session")
)

// Customer is a registered user.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	ZipCode   string
	Phone     string
	SSN       string
	Username  string
	Password  string
}

// Account is a bank account.
type Account struct {
	ID         int64
	CustomerID int64
	Type       string
	Balance    decimal.Decimal
}

// Transaction is a ledger entry on one account.
type Transaction struct {
	ID          int64
	AccountID   int64
	Type        string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Bank holds customers, accounts, transactions and web sessions.
type Bank struct {
	mu           sync.Mutex
	nextCustomer int64
	nextAccount  int64
	nextTxn      int64
	customers    map[string]*Customer
	accounts     map[int64]*Account
	txns         []Transaction
	// sessions maps a session id to its customer id; 0 is anonymous.
	sessions map[string]int64
	now      func() time.Time
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{
		nextCustomer: 12211,
		nextAccount:  13011,
		nextTxn:      14476,
		customers:    make(map[string]*Customer),
		accounts:     make(map[int64]*Account),
		sessions:     make(map[string]int64),
		now:          time.Now,
	}
}

// NewSession starts an anonymous session and returns its id.
func (b *Bank) NewSession() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	b.sessions[id] = 0
	return id
}

// HasSession reports whether id is a live session.
func (b *Bank) HasSession(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[id]
	return ok
}

// SessionCustomer returns the customer logged in on session id.
func (b *Bank) SessionCustomer(id string) (*Customer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cid, ok := b.sessions[id]
	if !ok || cid == 0 {
		return nil, false
	}
	for _, c := range b.customers {
		if c.ID == cid {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// Authenticate replaces session id with a fresh one bound to the customer
// and returns the new id.
func (b *Bank) Authenticate(id string, customerID int64) string {
	newID := b.NewSession()
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
	b.sessions[newID] = customerID
	return newID
}

// EndSession forgets session id.
func (b *Bank) EndSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
}

// Login checks credentials.
func (b *Bank) Login(username, password string) (*Customer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[username]
	if !ok || c.Password != password {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// registrationFields maps form fields to their validation message.
var registrationFields = []struct {
	name, message string
}{
	{"customer.firstName", "First name is required."},
	{"customer.lastName", "Last name is required."},
	{"customer.address.street", "Address is required."},
	{"customer.address.city", "City is required."},
	{"customer.address.state", "State is required."},
	{"customer.address.zipCode", "Zip Code is required."},
	{"customer.ssn", "Social Security Number is required."},
	{"customer.username", "Username is required."},
	{"customer.password", "Password is required."},
	{"repeatedPassword", "Password confirmation is required."},
}

// Register validates a registration form and creates the customer with a
// funded checking account. Validation failures are returned keyed by field.
func (b *Bank) Register(form url.Values) (*Customer, map[string]string) {
	problems := make(map[string]string)
	for _, f := range registrationFields {
		if strings.TrimSpace(form.Get(f.name)) == "" {
			problems[f.name] = f.message
		}
	}
	if pw := form.Get("customer.password"); pw != "" && form.Get("repeatedPassword") != "" && pw != form.Get("repeatedPassword") {
		problems["repeatedPassword"] = "Passwords did not match."
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.customers[form.Get("customer.username")]; taken {
		problems["customer.username"] = "This username already exists."
	}
	if len(problems) > 0 {
		return nil, problems
	}

	b.nextCustomer++
	c := &Customer{
		ID:        b.nextCustomer,
		FirstName: form.Get("customer.firstName"),
		LastName:  form.Get("customer.lastName"),
		Street:    form.Get("customer.address.street"),
		City:      form.Get("customer.address.city"),
		State:     form.Get("customer.address.state"),
		ZipCode:   form.Get("customer.address.zipCode"),
		Phone:     form.Get("customer.phoneNumber"),
		SSN:       form.Get("customer.ssn"),
		Username:  form.Get("customer.username"),
		Password:  form.Get("customer.password"),
	}
	b.customers[c.Username] = c

	acct := b.newAccountLocked(c.ID, "CHECKING")
	acct.Balance = InitialBalance
	b.recordLocked(acct.ID, "Credit", InitialBalance, "Funds Transfer Received")

	cp := *c
	return &cp, nil
}

func (b *Bank) newAccountLocked(customerID int64, kind string) *Account {
	b.nextAccount += 111
	a := &Account{ID: b.nextAccount, CustomerID: customerID, Type: kind}
	b.accounts[a.ID] = a
	return a
}

func (b *Bank) recordLocked(accountID int64, kind string, amount decimal.Decimal, desc string) {
	b.nextTxn++
	b.txns = append(b.txns, Transaction{
		ID:          b.nextTxn,
		AccountID:   accountID,
		Type:        kind,
		Date:        b.now(),
		Amount:      amount,
		Description: desc,
	})
}

func (b *Bank) ownedLocked(customerID, accountID int64) (*Account, error) {
	a, ok := b.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w #%d", ErrUnknownAccount, accountID)
	}
	if a.CustomerID != customerID {
		return nil, fmt.Errorf("%w: #%d", ErrNotOwner, accountID)
	}
	return a, nil
}

func (b *Bank) moveLocked(from *Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if from.Balance.LessThan(amount) && from.Type != "CHECKING" {
		return ErrInsufficientFunds
	}
	from.Balance = from.Balance.Sub(amount)
	return nil
}

// Accounts lists a customer's accounts in opening order.
func (b *Bank) Accounts(customerID int64) []Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Account
	for _, a := range b.accounts {
		if a.CustomerID == customerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Account returns one account by id.
func (b *Bank) Account(id int64) (Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w #%d", ErrUnknownAccount, id)
	}
	return *a, nil
}

// OpenAccount opens an account of kind ("CHECKING" or "SAVINGS") funded with
// the minimum deposit from fromID.
func (b *Bank) OpenAccount(customerID int64, kind string, fromID int64) (Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, err := b.ownedLocked(customerID, fromID)
	if err != nil {
		return Account{}, err
	}
	if err := b.moveLocked(from, MinimumOpeningDeposit); err != nil {
		return Account{}, err
	}
	a := b.newAccountLocked(customerID, kind)
	a.Balance = MinimumOpeningDeposit
	b.recordLocked(from.ID, "Debit", MinimumOpeningDeposit, "Funds Transfer Sent")
	b.recordLocked(a.ID, "Credit", MinimumOpeningDeposit, "Funds Transfer Received")
	return *a, nil
}

// Transfer moves amount between two of the customer's accounts.
func (b *Bank) Transfer(customerID int64, amount decimal.Decimal, fromID, toID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, err := b.ownedLocked(customerID, fromID)
	if err != nil {
		return err
	}
	to, err := b.ownedLocked(customerID, toID)
	if err != nil {
		return err
	}
	if err := b.moveLocked(from, amount); err != nil {
		return err
	}
	to.Balance = to.Balance.Add(amount)
	b.recordLocked(from.ID, "Debit", amount, "Funds Transfer Sent")
	b.recordLocked(to.ID, "Credit", amount, "Funds Transfer Received")
	return nil
}

// PayBill debits amount from fromID to an external payee.
func (b *Bank) PayBill(customerID int64, payee string, amount decimal.Decimal, fromID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, err := b.ownedLocked(customerID, fromID)
	if err != nil {
		return err
	}
	if err := b.moveLocked(from, amount); err != nil {
		return err
	}
	b.recordLocked(from.ID, "Debit", amount, "Bill Payment to "+payee)
	return nil
}

// Transactions lists an account's ledger, oldest first.
func (b *Bank) Transactions(accountID int64) ([]Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[accountID]; !ok {
		return nil, fmt.Errorf("%w #%d", ErrUnknownAccount, accountID)
	}
	var out []Transaction
	for _, t := range b.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

// TransactionsByAmount filters an account's ledger by exact amount.
func (b *Bank) TransactionsByAmount(accountID int64, amount decimal.Decimal) ([]Transaction, error) {
	all, err := b.Transactions(accountID)
	if err != nil {
		return nil, err
	}
	var out []Transaction
	for _, t := range all {
		if t.Amount.Equal(amount) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Money renders d the way ParaBank displays balances.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
