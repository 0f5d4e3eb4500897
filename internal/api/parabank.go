package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/parabank-qa/internal/browser"
	"github.com/Dicklesworthstone/parabank-qa/internal/data"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
)

// RegisterUser opens the registration page in drv to establish a server
// session, then posts the form with that session's cookies. Redirects are
// not followed; the raw response is returned.
func (c *Client) RegisterUser(ctx context.Context, u data.UserRegistrationData, drv browser.Driver) (*Response, error) {
	page := c.baseURL + data.PathRegister
	if err := drv.Navigate(ctx, page); err != nil {
		return nil, fmt.Errorf("opening registration page: %w", err)
	}
	if err := drv.WaitNetworkIdle(ctx); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   data.PathRegister,
		body:   []byte(u.Form().Encode()),
		header: http.Header{
			"Content-Type": []string{"application/x-www-form-urlencoded"},
			"Origin":       []string{c.baseURL},
			"Referer":      []string{page},
		},
		session: drv,
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("registered user via api", "username", u.Username, "status", resp.StatusCode)
	return resp, nil
}

func transactionsPath(accountID string) string {
	return data.PathAPIAccounts + "/" + url.PathEscape(accountID) + "/transactions"
}

// FindTransactionsByAmount searches an account's transactions by amount,
// in the browser session when one is bound.
func (c *Client) FindTransactionsByAmount(ctx context.Context, accountID, amount string) (*Transactions, error) {
	resp, err := c.get(ctx, transactionsPath(accountID)+"/amount/"+url.PathEscape(amount), true)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(resp)
}

// GetAllTransactions lists an account's transactions, in the browser
// session when one is bound.
func (c *Client) GetAllTransactions(ctx context.Context, accountID string) (*Transactions, error) {
	resp, err := c.get(ctx, transactionsPath(accountID), true)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(resp)
}

// GetAccountDetails fetches an account without any browser session.
func (c *Client) GetAccountDetails(ctx context.Context, accountID string) (*AccountDetails, error) {
	resp, err := c.get(ctx, data.PathAPIAccounts+"/"+url.PathEscape(accountID), false)
	if err != nil {
		return nil, err
	}
	out := &AccountDetails{Response: resp}
	if err := json.Unmarshal(resp.Body, &out.Account); err != nil {
		return out, fmt.Errorf("decoding account (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

func expectOK(subject string, resp *Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &expect.AssertionError{
		Matcher:  "toBe",
		Subject:  subject + " status",
		Expected: http.StatusOK,
		Actual:   resp.StatusCode,
		Message:  truncate(string(resp.Body), 200),
	}
}

func isArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// checked turns a fetch into a validated, non-empty transaction list.
func checked(subject string, txs *Transactions, err error) (*Transactions, error) {
	if txs != nil && txs.Response != nil {
		if serr := expectOK(subject, txs.Response); serr != nil {
			return nil, serr
		}
		if !isArray(txs.Response.Body) {
			return nil, &expect.AssertionError{Matcher: "toBeTruthy", Subject: subject, Message: "body is not an array"}
		}
	}
	if err != nil {
		return nil, err
	}
	if err := expect.Greater(subject+" length", len(txs.Items), 0); err != nil {
		return nil, err
	}
	return txs, nil
}

// ExpectTransactionsExist checks the account has at least one transaction
// and returns the first one's amount.
func (c *Client) ExpectTransactionsExist(ctx context.Context, accountID string) (string, error) {
	txs, err := c.GetAllTransactions(ctx, accountID)
	txs, err = checked("transactions", txs, err)
	if err != nil {
		return "", err
	}
	return txs.Items[0].Amount.String(), nil
}

var requiredTransactionFields = []string{"id", "accountId", "type", "date", "amount", "description"}

// ExpectTransactionsByAmountValid searches by amount and validates the first
// match: required fields present, amount equal as a number, belongs to the
// account and has a description.
func (c *Client) ExpectTransactionsByAmountValid(ctx context.Context, accountID, amount string) error {
	txs, err := c.FindTransactionsByAmount(ctx, accountID, amount)
	txs, err = checked("transactions by amount", txs, err)
	if err != nil {
		return err
	}

	raw, tx := txs.Raw[0], txs.Items[0]
	for _, field := range requiredTransactionFields {
		if _, ok := raw[field]; !ok {
			return &expect.AssertionError{Matcher: "toHaveProperty", Subject: "transaction", Expected: field}
		}
	}

	want, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("searched amount %q: %w", amount, err)
	}
	got, err := tx.Amount.Float()
	if err != nil || got != want {
		return &expect.AssertionError{Matcher: "toBe", Subject: "transaction.amount", Expected: want, Actual: tx.Amount.String()}
	}
	if err := expect.Equal("transaction.accountId", accountID, tx.AccountID.String()); err != nil {
		return err
	}
	return expect.NonEmpty("transaction.description", tx.Description)
}
