package data

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func TestGenerator_FieldShapes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		u := NewGenerator(rand.NewPCG(seed, seed>>1)).User()

		if len(u.ZipCode) != 5 || !isDigits(u.ZipCode) {
			t.Fatalf("zip %q is not 5 digits", u.ZipCode)
		}
		if len(u.PhoneNumber) != 10 || !isDigits(u.PhoneNumber) {
			t.Fatalf("phone %q is not 10 digits", u.PhoneNumber)
		}
		if len(u.SSN) != 9 || !isDigits(u.SSN) {
			t.Fatalf("ssn %q is not 9 digits", u.SSN)
		}
		if len(u.Username) != len(UsernamePrefix)+9 || !isDigits(u.Username[len(UsernamePrefix):]) {
			t.Fatalf("username %q does not match parauserNNNNNNNNN", u.Username)
		}
		if u.Password != DefaultPassword {
			t.Fatalf("password = %q, want %q", u.Password, DefaultPassword)
		}
	})
}

func TestGenerateUser_UsernamesRarelyCollide(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	collisions := 0
	for i := 0; i < 1000; i++ {
		u := GenerateUser()
		if _, dup := seen[u.Username]; dup {
			collisions++
		}
		seen[u.Username] = struct{}{}
	}
	// 1000 draws from 1e9 values; a single collision is already ~0.05% likely.
	if collisions > 1 {
		t.Fatalf("expected at most 1 username collision in 1000 draws, got %d", collisions)
	}
}

func TestUserForm_ContainsEveryField(t *testing.T) {
	u := NewGenerator(rand.NewPCG(1, 2)).User()
	form := u.Form()

	want := map[string]string{
		"customer.firstName":       u.FirstName,
		"customer.lastName":        u.LastName,
		"customer.address.street":  u.Street,
		"customer.address.city":    u.City,
		"customer.address.state":   u.State,
		"customer.address.zipCode": u.ZipCode,
		"customer.phoneNumber":     u.PhoneNumber,
		"customer.ssn":             u.SSN,
		"customer.username":        u.Username,
		"customer.password":        u.Password,
		"repeatedPassword":         u.Password,
	}
	if len(form) != len(want) {
		t.Fatalf("form has %d fields, want %d", len(form), len(want))
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestRandomString(t *testing.T) {
	s := RandomString(32)
	if len(s) != 32 {
		t.Fatalf("len = %d, want 32", len(s))
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			t.Fatalf("unexpected rune %q in %q", r, s)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"50", "$50.00"},
		{"100.5", "$100.50"},
		{" 0.125 ", "$0.13"},
	}
	for _, tt := range tests {
		got, err := FormatCurrency(tt.in)
		if err != nil {
			t.Fatalf("FormatCurrency(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FormatCurrency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := FormatCurrency("fifty"); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

func TestFormatCurrency_Cents(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 1_000_000_00).Draw(t, "cents")
		amount := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)

		got, err := FormatCurrency(amount)
		if err != nil {
			t.Fatalf("FormatCurrency(%q): %v", amount, err)
		}
		if got != "$"+amount {
			t.Fatalf("FormatCurrency(%q) = %q", amount, got)
		}
	})
}
