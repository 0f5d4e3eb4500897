package api

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Scalar is a JSON scalar read as text. Numbers are normalised to their
// shortest form, so 100.00 and 100 both read "100".
type Scalar string

// UnmarshalJSON accepts strings, numbers and booleans.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			*s = Scalar(b)
			return nil
		}
		*s = Scalar(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// String returns the text form.
func (s Scalar) String() string { return string(s) }

// Float parses the scalar as a number.
func (s Scalar) Float() (float64, error) {
	return strconv.ParseFloat(string(s), 64)
}

// Transaction is one ledger entry returned by the accounts API.
type Transaction struct {
	ID          Scalar `json:"id"`
	AccountID   Scalar `json:"accountId"`
	Type        string `json:"type"`
	Date        Scalar `json:"date"`
	Amount      Scalar `json:"amount"`
	Description string `json:"description"`
}

// Account is an account resource.
type Account struct {
	ID         Scalar `json:"id"`
	CustomerID Scalar `json:"customerId"`
	Type       string `json:"type"`
	Balance    Scalar `json:"balance"`
}

// Transactions is a decoded transactions response. Raw keeps each entry's
// fields so that presence can be checked independently of decoding.
type Transactions struct {
	Response *Response
	Items    []Transaction
	Raw      []map[string]json.RawMessage
}

// AccountDetails is a decoded account response.
type AccountDetails struct {
	Response *Response
	Account  Account
}

func decodeTransactions(resp *Response) (*Transactions, error) {
	out := &Transactions{Response: resp}
	if err := json.Unmarshal(resp.Body, &out.Raw); err != nil {
		return out, fmt.Errorf("decoding transactions (status %d): %w", resp.StatusCode, err)
	}
	if err := json.Unmarshal(resp.Body, &out.Items); err != nil {
		return out, fmt.Errorf("decoding transactions (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}
