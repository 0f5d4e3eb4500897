package journey

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/Dicklesworthstone/parabank-qa/internal/api"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

const casesFile = "journey/cases.go"

var (
	overviewURL = regexp.MustCompile(`overview\.htm`)
	accountID   = regexp.MustCompile(`^\d+$`)
)

// Cases returns every case in execution order.
func Cases() []Case {
	return []Case{
		UserJourney(),
		ClearedSessionRequiresLogin(),
		HybridAPIReads(),
	}
}

// UserJourney registers a customer and drives every banking feature end to
// end, then cross-checks the ledger through the REST API.
func UserJourney() Case {
	return Case{
		Title: "Complete ParaBank user journey",
		File:  casesFile,
		Run: func(ctx context.Context, t *T) error {
			user := data.GenerateUser()
			var defaultAccount, savingsAccount string

			if err := t.Step(ctx, "Navigate to ParaBank application", func(ctx context.Context) error {
				if err := t.Login.Goto(ctx); err != nil {
					return err
				}
				if err := t.Login.ExpectTitleContains(ctx, "ParaBank"); err != nil {
					return err
				}
				return t.Login.ExpectLoginFormVisible(ctx)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Create a new user from user registration page", func(ctx context.Context) error {
				if err := t.Registration.Goto(ctx); err != nil {
					return err
				}
				if err := t.Registration.RegisterUser(ctx, user); err != nil {
					return err
				}
				t.Log("user created", "username", user.Username, "password", user.Password)
				return t.Registration.ExpectRegistrationSuccess(ctx, user.Username)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Login with newly created user", func(ctx context.Context) error {
				if err := t.Driver.ClearCookies(ctx); err != nil {
					return err
				}
				if err := t.Login.Goto(ctx); err != nil {
					return err
				}
				if err := t.Login.Login(ctx, user.Username, user.Password); err != nil {
					return err
				}
				if err := t.Home.ExpectLoggedIn(ctx); err != nil {
					return err
				}
				return t.Base.ExpectURL(ctx, overviewURL)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Verify global navigation menu is working as expected", func(ctx context.Context) error {
				if err := t.Home.ExpectNavigationMenuVisible(ctx); err != nil {
					return err
				}
				return t.Home.VerifyNavigationLinks(ctx)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Create a Savings account and capture account number", func(ctx context.Context) error {
				if err := t.Home.GoToAccountsOverview(ctx); err != nil {
					return err
				}
				var err error
				if defaultAccount, err = t.AccountsOverview.WaitForAccountNumber(ctx, 0); err != nil {
					return err
				}
				if err := expect.NonEmpty("default account number", defaultAccount); err != nil {
					return err
				}

				if err := t.Home.GoToOpenNewAccount(ctx); err != nil {
					return err
				}
				if savingsAccount, err = t.OpenAccount.OpenSavingsAccount(ctx); err != nil {
					return err
				}
				if err := t.OpenAccount.ExpectAccountOpened(ctx); err != nil {
					return err
				}
				t.Log("savings account opened", "account", savingsAccount, "from", defaultAccount)
				return expect.Match("savings account number", accountID, savingsAccount)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Validate Accounts Overview displays balance details", func(ctx context.Context) error {
				if err := t.Home.GoToAccountsOverview(ctx); err != nil {
					return err
				}
				if err := t.AccountsOverview.ExpectPageTitle(ctx); err != nil {
					return err
				}
				if err := t.AccountsOverview.ExpectBalanceDetailsDisplayed(ctx); err != nil {
					return err
				}
				return t.AccountsOverview.ExpectAccountExists(ctx, savingsAccount)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Transfer funds from Savings account to another account", func(ctx context.Context) error {
				if err := t.Home.GoToTransferFunds(ctx); err != nil {
					return err
				}
				if err := t.TransferFunds.TransferFunds(ctx, data.TransferAmount, defaultAccount, savingsAccount); err != nil {
					return err
				}
				return t.TransferFunds.ExpectTransferComplete(ctx)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Pay a bill using the Savings account", func(ctx context.Context) error {
				if err := t.Home.GoToBillPay(ctx); err != nil {
					return err
				}
				payee := data.DefaultPayee
				payee.Amount = data.BillPayAmount
				if err := t.BillPay.PayBill(ctx, payee, savingsAccount); err != nil {
					return err
				}
				if err := t.BillPay.ExpectPaymentSuccess(ctx); err != nil {
					return err
				}
				return t.BillPay.ExpectPaymentDetails(ctx, payee.Name, data.BillPayAmount)
			}); err != nil {
				return err
			}

			return t.Step(ctx, "Search transactions and validate JSON response via API", func(ctx context.Context) error {
				// Bill payments are not always indexed for search, so seed the
				// search with an amount the account is known to have.
				amount, err := t.API.ExpectTransactionsExist(ctx, savingsAccount)
				if err != nil {
					return err
				}
				t.Log("searching transactions", "account", savingsAccount, "amount", amount)
				return t.API.ExpectTransactionsByAmountValid(ctx, savingsAccount, amount)
			})
		},
	}
}

// ClearedSessionRequiresLogin checks that clearing the browser's cookies
// after registration forces a fresh login.
func ClearedSessionRequiresLogin() Case {
	return Case{
		Title: "Cleared session requires re-authentication",
		File:  casesFile,
		Run: func(ctx context.Context, t *T) error {
			user := data.GenerateUser()

			if err := t.Step(ctx, "Register a new user", func(ctx context.Context) error {
				if err := t.Registration.Goto(ctx); err != nil {
					return err
				}
				if err := t.Registration.RegisterUser(ctx, user); err != nil {
					return err
				}
				return t.Registration.ExpectRegistrationSuccess(ctx, user.Username)
			}); err != nil {
				return err
			}

			return t.Step(ctx, "Clear cookies and open the overview", func(ctx context.Context) error {
				if err := t.Driver.ClearCookies(ctx); err != nil {
					return err
				}
				if err := t.AccountsOverview.Goto(ctx); err != nil {
					return err
				}
				if err := t.Login.ExpectLoginFormVisible(ctx); err != nil {
					return err
				}
				return t.AccountsOverview.ExpectAccountsTableHidden(ctx)
			})
		},
	}
}

// HybridAPIReads registers through the API inside the browser session, logs
// in through the UI and checks the read endpoints.
func HybridAPIReads() Case {
	return Case{
		Title: "Hybrid API registration and transaction reads",
		File:  casesFile,
		Run: func(ctx context.Context, t *T) error {
			user := data.GenerateUser()
			var account string

			if err := t.Step(ctx, "Register via API in the browser session", func(ctx context.Context) error {
				resp, err := t.API.RegisterUser(ctx, user, t.Driver)
				if err != nil {
					return err
				}
				if resp.StatusCode >= http.StatusBadRequest {
					return &expect.AssertionError{Matcher: "toBeOK", Subject: "POST register.htm", Expected: "< 400", Actual: resp.StatusCode}
				}
				return nil
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Login with the API-registered user", func(ctx context.Context) error {
				if err := t.Driver.ClearCookies(ctx); err != nil {
					return err
				}
				if err := t.Login.Goto(ctx); err != nil {
					return err
				}
				if err := t.Login.Login(ctx, user.Username, user.Password); err != nil {
					return err
				}
				if err := t.Home.ExpectLoggedIn(ctx); err != nil {
					return err
				}
				if err := t.Home.GoToAccountsOverview(ctx); err != nil {
					return err
				}
				var err error
				if account, err = t.AccountsOverview.WaitForAccountNumber(ctx, 0); err != nil {
					return err
				}
				return expect.Match("default account number", accountID, account)
			}); err != nil {
				return err
			}

			if err := t.Step(ctx, "Repeated transaction reads return the same ids", func(ctx context.Context) error {
				first, err := transactionIDs(ctx, t.API, account)
				if err != nil {
					return err
				}
				second, err := transactionIDs(ctx, t.API, account)
				if err != nil {
					return err
				}
				if err := expect.Greater("transaction count", len(first), 0); err != nil {
					return err
				}
				return expect.Equal("transaction ids", strings.Join(first, ","), strings.Join(second, ","))
			}); err != nil {
				return err
			}

			return t.Step(ctx, "Account details without a session", func(ctx context.Context) error {
				details, err := t.API.GetAccountDetails(ctx, account)
				if err != nil {
					return err
				}
				if details.Response.StatusCode != http.StatusOK {
					return &expect.AssertionError{Matcher: "toBe", Subject: "account status", Expected: http.StatusOK, Actual: details.Response.StatusCode}
				}
				return expect.Equal("account.id", account, details.Account.ID.String())
			})
		},
	}
}

func transactionIDs(ctx context.Context, client *api.Client, account string) ([]string, error) {
	txs, err := client.GetAllTransactions(ctx, account)
	if err != nil {
		return nil, err
	}
	if txs.Response.StatusCode != http.StatusOK {
		return nil, &expect.AssertionError{Matcher: "toBe", Subject: "transactions status", Expected: http.StatusOK, Actual: txs.Response.StatusCode}
	}
	ids := make([]string, 0, len(txs.Items))
	for _, tx := range txs.Items {
		ids = append(ids, tx.ID.String())
	}
	slices.Sort(ids)
	return ids, nil
}

// Describe lists the case titles, one per line.
func Describe(cases []Case) string {
	var b strings.Builder
	for i, c := range cases {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Title)
	}
	return b.String()
}
