package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/parabank-qa/internal/data"
	"github.com/Dicklesworthstone/parabank-qa/internal/expect"
	"github.com/Dicklesworthstone/parabank-qa/internal/parabanktest"
)

type harness struct {
	bank   *parabanktest.Bank
	ui     *parabanktest.UI
	client *Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bank := parabanktest.NewBank()
	srv := parabanktest.NewServer(bank).Start()
	t.Cleanup(srv.Close)
	ui := parabanktest.NewUI(bank, srv.URL)
	return &harness{
		bank:   bank,
		ui:     ui,
		client: New(srv.URL, WithSession(ui.Fake)),
	}
}

func (h *harness) register(t *testing.T) (data.UserRegistrationData, string) {
	t.Helper()
	ctx := context.Background()
	u := data.GenerateUser()
	resp, err := h.client.RegisterUser(ctx, u, h.ui.Fake)
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302 (body %s)", resp.StatusCode, resp.Body)
	}
	c, ok := h.bank.Login(u.Username, u.Password)
	if !ok {
		t.Fatal("registered user cannot log in")
	}
	accts := h.bank.Accounts(c.ID)
	if len(accts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(accts))
	}
	return u, formatID(accts[0].ID)
}

func formatID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestRegisterUserSharesBrowserSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	u, _ := h.register(t)

	ck := h.ui.Fake.Cookie(parabanktest.SessionCookie)
	if ck == nil {
		t.Fatal("browser lost its session cookie")
	}
	c, ok := h.bank.SessionCustomer(ck.Value)
	if !ok || c.Username != u.Username {
		t.Errorf("browser session not logged in as %s after registration", u.Username)
	}
}

func TestRegisterWithoutSessionIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	u := data.GenerateUser()
	resp, err := h.client.do(context.Background(), request{
		method: http.MethodPost,
		path:   data.PathRegister,
		body:   []byte(u.Form().Encode()),
		header: http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestTransactionsInSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, acct := h.register(t)
	ctx := context.Background()

	amount, err := h.client.ExpectTransactionsExist(ctx, acct)
	if err != nil {
		t.Fatalf("ExpectTransactionsExist: %v", err)
	}
	if amount != "515.5" {
		t.Errorf("amount = %q, want 515.5", amount)
	}
	if err := h.client.ExpectTransactionsByAmountValid(ctx, acct, amount); err != nil {
		t.Errorf("ExpectTransactionsByAmountValid: %v", err)
	}

	err = h.client.ExpectTransactionsByAmountValid(ctx, acct, "999")
	var ae *expect.AssertionError
	if !errors.As(err, &ae) || ae.Subject != "transactions by amount length" {
		t.Errorf("expected empty-result assertion, got %v", err)
	}
}

func TestTransactionsWithoutSessionFail(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, acct := h.register(t)
	h.client.SetSession(nil)

	_, err := h.client.ExpectTransactionsExist(context.Background(), acct)
	var ae *expect.AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected assertion error, got %v", err)
	}
	if ae.Actual != http.StatusUnauthorized {
		t.Errorf("status = %v, want 401", ae.Actual)
	}
}

func TestGetAccountDetailsIsSessionless(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	_, acct := h.register(t)
	_ = h.ui.Fake.ClearCookies(context.Background())

	got, err := h.client.GetAccountDetails(context.Background(), acct)
	if err != nil {
		t.Fatalf("GetAccountDetails: %v", err)
	}
	if got.Response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", got.Response.StatusCode)
	}
	if got.Account.ID.String() != acct || got.Account.Type != "CHECKING" {
		t.Errorf("account = %+v", got.Account)
	}

	missing, err := h.client.GetAccountDetails(context.Background(), "1")
	if err == nil || missing.Response.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown account: err=%v status=%d", err, missing.Response.StatusCode)
	}
}

func TestScalarUnmarshal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{`100`, "100"},
		{`100.00`, "100"},
		{`"100.00"`, "100.00"},
		{`12345`, "12345"},
		{`"abc"`, "abc"},
		{`null`, ""},
		{`1.5e2`, "150"},
	}
	for _, tt := range tests {
		var s Scalar
		if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if s.String() != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, s, tt.want)
		}
	}
}

// cannedBank answers every transactions request with status and body.
func cannedBank(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, data.PathAPIAccounts+"/13344/transactions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

const validTx = `{"id":1,"accountId":13344,"type":"Debit","date":1700000000000,"amount":50.00,"description":"Bill Payment to Electric"}`

func TestExpectTransactionsExist_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		body    string
		subject string
		matcher string
	}{
		{"empty list", http.StatusOK, `[]`, "transactions length", "toBeGreaterThan"},
		{"object body", http.StatusOK, `{"error":"none"}`, "transactions", "toBeTruthy"},
		{"null body", http.StatusOK, `null`, "transactions", "toBeTruthy"},
		{"server error", http.StatusInternalServerError, `oops`, "transactions status", "toBe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := cannedBank(t, tc.status, tc.body)
			_, err := c.ExpectTransactionsExist(context.Background(), "13344")
			var ae *expect.AssertionError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %v, want assertion", err)
			}
			if ae.Subject != tc.subject || ae.Matcher != tc.matcher {
				t.Errorf("assertion = %s %s, want %s %s", ae.Subject, ae.Matcher, tc.subject, tc.matcher)
			}
		})
	}
}

func TestExpectTransactionsExist_ReturnsFirstAmount(t *testing.T) {
	t.Parallel()
	c := cannedBank(t, http.StatusOK, "["+validTx+"]")
	amount, err := c.ExpectTransactionsExist(context.Background(), "13344")
	if err != nil {
		t.Fatalf("ExpectTransactionsExist: %v", err)
	}
	if amount != "50" {
		t.Errorf("amount = %q, want 50", amount)
	}
}

func TestExpectTransactionsByAmountValid_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		amount  string
		body    string
		subject string
		matcher string
	}{
		{"no matches", "50", `[]`, "transactions by amount length", "toBeGreaterThan"},
		{"missing description", "50",
			`[{"id":1,"accountId":13344,"type":"Debit","date":1,"amount":50}]`, "transaction", "toHaveProperty"},
		{"amount mismatch", "75", "[" + validTx + "]", "transaction.amount", "toBe"},
		{"unparsable amount", "50",
			`[{"id":1,"accountId":13344,"type":"Debit","date":1,"amount":"n/a","description":"x"}]`, "transaction.amount", "toBe"},
		{"foreign account", "50",
			`[{"id":1,"accountId":99999,"type":"Debit","date":1,"amount":50,"description":"x"}]`, "transaction.accountId", "toBe"},
		{"blank description", "50",
			`[{"id":1,"accountId":13344,"type":"Debit","date":1,"amount":50,"description":"  "}]`, "transaction.description", "toBeTruthy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := cannedBank(t, http.StatusOK, tc.body)
			err := c.ExpectTransactionsByAmountValid(context.Background(), "13344", tc.amount)
			var ae *expect.AssertionError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %v, want assertion", err)
			}
			if ae.Subject != tc.subject || ae.Matcher != tc.matcher {
				t.Errorf("assertion = %s %s, want %s %s", ae.Subject, ae.Matcher, tc.subject, tc.matcher)
			}
		})
	}
}

func TestExpectTransactionsByAmountValid_AcceptsEquivalentAmounts(t *testing.T) {
	t.Parallel()
	bodies := []string{
		"[" + validTx + "]",
		`[{"id":"1","accountId":"13344","type":"Debit","date":"2024-01-01","amount":"50.00","description":"Funds Transfer"}]`,
	}
	for _, body := range bodies {
		c := cannedBank(t, http.StatusOK, body)
		if err := c.ExpectTransactionsByAmountValid(context.Background(), "13344", "50.0"); err != nil {
			t.Errorf("body %s: %v", body, err)
		}
	}
}

func TestExpectTransactionsByAmountValid_BadSearchAmount(t *testing.T) {
	t.Parallel()
	c := cannedBank(t, http.StatusOK, "["+validTx+"]")
	err := c.ExpectTransactionsByAmountValid(context.Background(), "13344", "fifty")
	if err == nil || !strings.Contains(err.Error(), `searched amount "fifty"`) {
		t.Errorf("err = %v", err)
	}
}
