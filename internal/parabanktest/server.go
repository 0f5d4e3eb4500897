package parabanktest

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/Dicklesworthstone/parabank-qa/internal/data"
)

// Server serves the registration and login forms and the REST account
// resources backed by a Bank.
type Server struct {
	Bank   *Bank
	router chi.Router
}

// NewServer builds the router for bank.
func NewServer(bank *Bank) *Server {
	s := &Server{Bank: bank}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(data.PathRegister, s.handleRegisterForm)
	r.Post(data.PathRegister, s.handleRegister)
	r.Post("/parabank/login.htm", s.handleLogin)

	r.Route(data.PathAPIAccounts+"/{accountID}", func(r chi.Router) {
		r.Get("/", s.handleAccount)
		r.With(s.requireLogin).Get("/transactions", s.handleTransactions)
		r.With(s.requireLogin).Get("/transactions/amount/{amount}", s.handleTransactionsByAmount)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves s on a local test listener. The caller closes it.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSession(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/parabank",
		HttpOnly: true,
	})
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id == "" || !s.Bank.HasSession(id) {
		setSession(w, s.Bank.NewSession())
	}
	w.Header().Set("Content-Type", "text/html;charset=UTF-8")
	fmt.Fprint(w, `<html><head><title>ParaBank | Register for Free Online Account Access</title></head>`+
		`<body><div id="rightPanel"><h1 class="title">Signing up is easy!</h1><form id="customerForm" method="POST"></form></div></body></html>`)
}

// handleRegister accepts the registration form only on an established
// session, mirroring the servlet's form handling.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" || !s.Bank.HasSession(id) {
		http.Error(w, "session required", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, problems := s.Bank.Register(r.PostForm)
	if len(problems) > 0 {
		w.Header().Set("Content-Type", "text/html;charset=UTF-8")
		var b strings.Builder
		b.WriteString(`<html><head><title>ParaBank | Register for Free Online Account Access</title></head><body><div id="rightPanel">`)
		for field, msg := range problems {
			fmt.Fprintf(&b, `<span id="%s.errors" class="error">%s</span>`, html.EscapeString(field), html.EscapeString(msg))
		}
		b.WriteString(`</div></body></html>`)
		fmt.Fprint(w, b.String())
		return
	}
	setSession(w, s.Bank.Authenticate(id, c.ID))
	http.Redirect(w, r, data.PathOverview, http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, ok := s.Bank.Login(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if !ok {
		w.Header().Set("Content-Type", "text/html;charset=UTF-8")
		fmt.Fprint(w, `<p class="error">The username and password could not be verified.</p>`)
		return
	}
	setSession(w, s.Bank.Authenticate(sessionID(r), c.ID))
	http.Redirect(w, r, data.PathOverview, http.StatusFound)
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.Bank.SessionCustomer(sessionID(r)); !ok {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountJSON struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customerId"`
	Type       string      `json:"type"`
	Balance    json.Number `json:"balance"`
}

type transactionJSON struct {
	ID          int64       `json:"id"`
	AccountID   int64       `json:"accountId"`
	Type        string      `json:"type"`
	Date        int64       `json:"date"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

func toTransactionJSON(ts []Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, transactionJSON{
			ID:          t.ID,
			AccountID:   t.AccountID,
			Type:        t.Type,
			Date:        t.Date.UnixNano() / int64(time.Millisecond),
			Amount:      json.Number(t.Amount.StringFixed(2)),
			Description: t.Description,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func accountParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, "Could not find account #"+chi.URLParam(r, "accountID"), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeBankError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrUnknownAccount) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountParam(w, r)
	if !ok {
		return
	}
	a, err := s.Bank.Account(id)
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountJSON{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		Type:       a.Type,
		Balance:    json.Number(a.Balance.StringFixed(2)),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := accountParam(w, r)
	if !ok {
		return
	}
	ts, err := s.Bank.Transactions(id)
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(ts))
}

func (s *Server) handleTransactionsByAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountParam(w, r)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(chi.URLParam(r, "amount"))
	if err != nil {
		http.Error(w, ErrInvalidAmount.Error(), http.StatusBadRequest)
		return
	}
	ts, err := s.Bank.TransactionsByAmount(id, amount)
	if err != nil {
		writeBankError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(ts))
}
