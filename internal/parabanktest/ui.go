package parabanktest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

// UI scripts a browser.Fake with the ParaBank screens, sharing state and
// sessions with a Bank so that browser and REST views stay consistent.
type UI struct {
	Bank *Bank
	Fake *browser.Fake
	// OptionsDelay is how many reads an account select stays empty after
	// render, emulating the XHR that populates it.
	OptionsDelay int
}

// NewUI returns a Fake serving the ParaBank pages under origin.
func NewUI(bank *Bank, origin string) *UI {
	ui := &UI{Bank: bank, Fake: browser.NewFake(origin), OptionsDelay: 2}
	f := ui.Fake
	f.Route(data.PathIndex, ui.index)
	f.Route(data.PathRegister, ui.register)
	f.Route(data.PathOverview, ui.authed(ui.overview))
	f.Route(data.PathOpenAccount, ui.authed(ui.openAccount))
	f.Route(data.PathTransfer, ui.authed(ui.transfer))
	f.Route(data.PathBillPay, ui.authed(ui.billPay))
	f.Route(data.PathFindTrans, ui.authed(ui.simple("Find Transactions")))
	f.Route(data.PathUpdateProfile, ui.authed(ui.simple("Update Profile")))
	f.Route(data.PathRequestLoan, ui.authed(ui.simple("Apply for a Loan")))
	f.Route(data.PathLogout, ui.logout)
	f.Route(data.PathLookup, ui.lookup)
	return ui
}

const titlePrefix = "ParaBank | "

func (ui *UI) session() string {
	if c := ui.Fake.Cookie(SessionCookie); c != nil {
		return c.Value
	}
	return ""
}

func (ui *UI) ensureSession() string {
	id := ui.session()
	if id != "" && ui.Bank.HasSession(id) {
		return id
	}
	id = ui.Bank.NewSession()
	ui.setSession(id)
	return id
}

func (ui *UI) setSession(id string) {
	_ = ui.Fake.SetCookies(context.Background(), []*http.Cookie{{Name: SessionCookie, Value: id, Path: "/parabank", HttpOnly: true}})
}

func (ui *UI) customer() (*Customer, bool) {
	return ui.Bank.SessionCustomer(ui.session())
}

// authed renders page for logged-in sessions and the login screen otherwise.
func (ui *UI) authed(page func(f *browser.Fake, c *Customer)) browser.Page {
	return func(f *browser.Fake) {
		c, ok := ui.customer()
		if !ok {
			ui.chrome(f, nil)
			f.SetTitle(titlePrefix + "Error")
			f.SetText("#rightPanel h1", "Error!")
			f.SetText("#rightPanel p.error", "An internal error has occurred and has been logged.")
			return
		}
		ui.chrome(f, c)
		page(f, c)
	}
}

// chrome renders the header, footer and left panel.
func (ui *UI) chrome(f *browser.Fake, c *Customer) {
	links := map[string]string{
		`li.home a`:                            data.PathIndex,
		`li.aboutus a`:                         "/parabank/about.htm",
		`li.contact a`:                         "/parabank/contact.htm",
		`#headerPanel a[href*="about.htm"]`:    "/parabank/about.htm",
		`#headerPanel a[href*="admin.htm"]`:    "/parabank/admin.htm",
		`#footerPanel a[href*="index.htm"]`:    data.PathIndex,
		`#footerPanel a[href*="about.htm"]`:    "/parabank/about.htm",
		`#footerPanel a[href*="services.htm"]`: "/parabank/services.htm",
		`#footerPanel a[href*="contact.htm"]`:  "/parabank/contact.htm",
		`#footerPanel a[href*="sitemap.htm"]`:  "/parabank/sitemap.htm",
	}
	for sel, path := range links {
		ui.link(f, sel, path)
	}

	if c == nil {
		f.SetNodes(`input[name="username"]`, &browser.Node{})
		f.SetNodes(`input[name="password"]`, &browser.Node{})
		f.SetNodes(`input[type="submit"][value="Log In"]`, &browser.Node{Value: "Log In"})
		ui.link(f, `a[href*="register.htm"]`, data.PathRegister)
		ui.link(f, `a[href*="lookup.htm"]`, data.PathLookup)
		f.OnClick(`input[type="submit"][value="Log In"]`, ui.submitLogin)
		return
	}

	f.SetText(`#leftPanel .smallText`, "Welcome "+c.FirstName+" "+c.LastName)
	for sel, path := range map[string]string{
		`a[href*="openaccount.htm"]`:   data.PathOpenAccount,
		`a[href*="overview.htm"]`:      data.PathOverview,
		`a[href*="transfer.htm"]`:      data.PathTransfer,
		`a[href*="billpay.htm"]`:       data.PathBillPay,
		`a[href*="findtrans.htm"]`:     data.PathFindTrans,
		`a[href*="updateprofile.htm"]`: data.PathUpdateProfile,
		`a[href*="requestloan.htm"]`:   data.PathRequestLoan,
		`a[href*="logout.htm"]`:        data.PathLogout,
	} {
		ui.link(f, sel, path)
	}
}

func (ui *UI) link(f *browser.Fake, sel, path string) {
	f.SetNodes(sel, &browser.Node{Text: strings.TrimSuffix(strings.TrimPrefix(path, "/parabank/"), ".htm")})
	f.OnClick(sel, func(ctx context.Context, f *browser.Fake) error {
		f.Goto(path)
		return nil
	})
}

func (ui *UI) index(f *browser.Fake) {
	c, _ := ui.customer()
	ui.chrome(f, c)
	f.SetTitle(titlePrefix + "Welcome | Online Banking")
	f.SetText("#rightPanel h2", "ATM Services")
}

func (ui *UI) submitLogin(ctx context.Context, f *browser.Fake) error {
	username := f.Value(`input[name="username"]`)
	password := f.Value(`input[name="password"]`)
	c, ok := ui.Bank.Login(username, password)
	if !ok {
		f.Goto(data.PathIndex)
		f.SetTitle(titlePrefix + "Error")
		f.SetText("#rightPanel h1", "Error!")
		f.SetText(".error", "The username and password could not be verified.")
		return nil
	}
	ui.setSession(ui.Bank.Authenticate(ui.session(), c.ID))
	f.Goto(data.PathOverview)
	return nil
}

var registrationInputs = []struct{ sel, field string }{
	{`#customer\.firstName`, "customer.firstName"},
	{`#customer\.lastName`, "customer.lastName"},
	{`#customer\.address\.street`, "customer.address.street"},
	{`#customer\.address\.city`, "customer.address.city"},
	{`#customer\.address\.state`, "customer.address.state"},
	{`#customer\.address\.zipCode`, "customer.address.zipCode"},
	{`#customer\.phoneNumber`, "customer.phoneNumber"},
	{`#customer\.ssn`, "customer.ssn"},
	{`#customer\.username`, "customer.username"},
	{`#customer\.password`, "customer.password"},
	{`#repeatedPassword`, "repeatedPassword"},
}

func (ui *UI) register(f *browser.Fake) {
	ui.ensureSession()
	c, _ := ui.customer()
	ui.chrome(f, c)
	f.SetTitle(titlePrefix + "Register for Free Online Account Access")
	f.SetText("#rightPanel h1", "Signing up is easy!")
	for _, in := range registrationInputs {
		f.SetNodes(in.sel, &browser.Node{})
	}
	f.SetNodes(`input[type="submit"][value="Register"]`, &browser.Node{Value: "Register"})
	f.OnClick(`input[type="submit"][value="Register"]`, ui.submitRegistration)
}

func (ui *UI) submitRegistration(ctx context.Context, f *browser.Fake) error {
	form := url.Values{}
	for _, in := range registrationInputs {
		form.Set(in.field, f.Value(in.sel))
	}
	id := ui.ensureSession()
	c, problems := ui.Bank.Register(form)
	if len(problems) > 0 {
		var errs []*browser.Node
		for _, in := range registrationInputs {
			if msg, ok := problems[in.field]; ok {
				errs = append(errs, &browser.Node{Text: msg})
			}
		}
		f.SetNodes(".error", errs...)
		return nil
	}

	ui.setSession(ui.Bank.Authenticate(id, c.ID))
	f.Reset()
	ui.chrome(f, c)
	f.SetTitle(titlePrefix + "Customer Created")
	f.SetText("#rightPanel h1", "Welcome "+c.Username)
	f.SetText("#rightPanel p", "Your account was created successfully. You are now logged in.")
	return nil
}

func (ui *UI) overview(f *browser.Fake, c *Customer) {
	f.SetTitle(titlePrefix + "Accounts Overview")
	f.SetText("#rightPanel h1", "Accounts Overview")
	f.SetNodes("#accountTable", &browser.Node{Text: "Account Balance* Available Amount"})

	accounts := ui.Bank.Accounts(c.ID)
	var (
		rows  []*browser.Node
		links []*browser.Node
		total decimal.Decimal
	)
	for _, a := range accounts {
		id := strconv.FormatInt(a.ID, 10)
		bal := Money(a.Balance)
		rows = append(rows, &browser.Node{
			Text:     id + " " + bal + " " + bal,
			Children: map[string]*browser.Node{"td:nth-child(2)": {Text: bal}},
		})
		links = append(links, &browser.Node{Text: id})
		total = total.Add(a.Balance)
	}
	rows = append(rows, &browser.Node{
		Text:     "Total " + Money(total),
		Children: map[string]*browser.Node{"td:nth-child(2)": {Text: Money(total)}},
	})
	f.SetNodes("#accountTable tbody tr", rows...)
	f.SetNodes("#accountTable tbody tr td a", links...)
	f.SetNodes("#accountTable a", links...)
}

func (ui *UI) accountOptions(c *Customer) []browser.Option {
	var opts []browser.Option
	for _, a := range ui.Bank.Accounts(c.ID) {
		id := strconv.FormatInt(a.ID, 10)
		opts = append(opts, browser.Option{Value: id, Label: id})
	}
	return opts
}

func (ui *UI) accountSelect(c *Customer) *browser.Node {
	opts := ui.accountOptions(c)
	n := &browser.Node{Options: opts, OptionsAfter: ui.OptionsDelay}
	if len(opts) > 0 {
		n.Value = opts[0].Value
	}
	return n
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id
}

func (ui *UI) showError(f *browser.Fake, msg string) {
	f.SetText("#rightPanel h1", "Error!")
	f.SetText("#rightPanel p.error", msg)
}

func (ui *UI) openAccount(f *browser.Fake, c *Customer) {
	f.SetTitle(titlePrefix + "Open Account")
	f.SetText("#rightPanel h1", "Open New Account")
	f.SetNodes("#type", &browser.Node{
		Value:   data.AccountTypeChecking,
		Options: []browser.Option{{Value: data.AccountTypeChecking, Label: "CHECKING"}, {Value: data.AccountTypeSavings, Label: "SAVINGS"}},
	})
	f.SetNodes("#fromAccountId", ui.accountSelect(c))
	f.SetNodes(`input[type="button"][value="Open New Account"]`, &browser.Node{Value: "Open New Account"})
	f.OnClick(`input[type="button"][value="Open New Account"]`, func(ctx context.Context, f *browser.Fake) error {
		kind := "CHECKING"
		if f.Value("#type") == data.AccountTypeSavings {
			kind = "SAVINGS"
		}
		a, err := ui.Bank.OpenAccount(c.ID, kind, parseID(f.Value("#fromAccountId")))
		f.Reset()
		ui.chrome(f, c)
		f.SetTitle(titlePrefix + "Open Account")
		if err != nil {
			ui.showError(f, err.Error())
			return nil
		}
		f.SetText("#rightPanel h1", "Account Opened!")
		f.SetText("#rightPanel p", "Congratulations, your account is now open.")
		f.SetText("#newAccountId", strconv.FormatInt(a.ID, 10))
		return nil
	})
}

func (ui *UI) transfer(f *browser.Fake, c *Customer) {
	f.SetTitle(titlePrefix + "Transfer Funds")
	f.SetText("#rightPanel h1", "Transfer Funds")
	f.SetNodes("#amount", &browser.Node{})
	f.SetNodes("#fromAccountId", ui.accountSelect(c))
	f.SetNodes("#toAccountId", ui.accountSelect(c))
	f.SetNodes(`input[type="submit"][value="Transfer"]`, &browser.Node{Value: "Transfer"})
	f.OnClick(`input[type="submit"][value="Transfer"]`, func(ctx context.Context, f *browser.Fake) error {
		raw := f.Value("#amount")
		from, to := f.Value("#fromAccountId"), f.Value("#toAccountId")
		amount, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err == nil {
			err = ui.Bank.Transfer(c.ID, amount, parseID(from), parseID(to))
		}
		f.Reset()
		ui.chrome(f, c)
		f.SetTitle(titlePrefix + "Transfer Funds")
		if err != nil {
			ui.showError(f, err.Error())
			return nil
		}
		f.SetText("#rightPanel h1", "Transfer Complete!")
		f.SetText("#amountResult", Money(amount))
		f.SetText("#fromAccountIdResult", from)
		f.SetText("#toAccountIdResult", to)
		return nil
	})
}

var billPayInputs = []string{
	`input[name="payee.name"]`,
	`input[name="payee.address.street"]`,
	`input[name="payee.address.city"]`,
	`input[name="payee.address.state"]`,
	`input[name="payee.address.zipCode"]`,
	`input[name="payee.phoneNumber"]`,
	`input[name="payee.accountNumber"]`,
	`input[name="verifyAccount"]`,
	`input[name="amount"]`,
}

func (ui *UI) billPay(f *browser.Fake, c *Customer) {
	f.SetTitle(titlePrefix + "Bill Pay")
	f.SetText("#rightPanel h1", "Bill Payment Service")
	for _, sel := range billPayInputs {
		f.SetNodes(sel, &browser.Node{})
	}
	f.SetNodes(`select[name="fromAccountId"]`, ui.accountSelect(c))
	f.SetNodes(`input[value="Send Payment"]`, &browser.Node{Value: "Send Payment"})
	f.OnClick(`input[value="Send Payment"]`, func(ctx context.Context, f *browser.Fake) error {
		payee := f.Value(`input[name="payee.name"]`)
		from := f.Value(`select[name="fromAccountId"]`)
		if f.Value(`input[name="payee.accountNumber"]`) != f.Value(`input[name="verifyAccount"]`) {
			f.SetText(".error", "The account numbers do not match.")
			return nil
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(f.Value(`input[name="amount"]`)))
		if err == nil {
			err = ui.Bank.PayBill(c.ID, payee, amount, parseID(from))
		}
		f.Reset()
		ui.chrome(f, c)
		f.SetTitle(titlePrefix + "Bill Pay")
		if err != nil {
			ui.showError(f, err.Error())
			return nil
		}
		f.SetText("#rightPanel h1", "Bill Payment Complete")
		f.SetText("#payeeName", payee)
		f.SetText("#amount", Money(amount))
		f.SetText("#fromAccountId", from)
		return nil
	})
}

func (ui *UI) simple(heading string) func(*browser.Fake, *Customer) {
	return func(f *browser.Fake, _ *Customer) {
		f.SetTitle(titlePrefix + heading)
		f.SetText("#rightPanel h1", heading)
	}
}

func (ui *UI) lookup(f *browser.Fake) {
	c, _ := ui.customer()
	ui.chrome(f, c)
	ui.simple("Customer Lookup")(f, c)
}

func (ui *UI) logout(f *browser.Fake) {
	if id := ui.session(); id != "" {
		ui.Bank.EndSession(id)
	}
	_ = f.SetCookies(context.Background(), []*http.Cookie{{Name: SessionCookie, MaxAge: -1}})
	f.Goto(data.PathIndex)
}
