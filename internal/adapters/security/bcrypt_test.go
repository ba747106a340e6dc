package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasherClampsCost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{-3, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{99, bcrypt.MaxCost},
		{12, 12},
	}
	for _, tc := range cases {
		if got := NewBcryptHasher(tc.in).cost; got != tc.want {
			t.Fatalf("cost %d: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := h.Compare(hash, "SecurePass123"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := h.Compare(hash, "WrongPass123"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
