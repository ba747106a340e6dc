package domain

import (
	"strings"
	"testing"
	"time"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		password  string
		wantError bool
	}{
		{name: "valid", password: "SecurePass123", wantError: false},
		{name: "minimum length", password: "12345678", wantError: false},
		{name: "too short", password: "1234567", wantError: true},
		{name: "empty", password: "", wantError: true},
		{name: "too long", password: strings.Repeat("a", 129), wantError: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
			if tc.wantError && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantError && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestOneTimeCodeExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	code := OneTimeCode{Email: "a@example.com", Code: "123456", ExpiresAt: now.Add(10 * time.Minute)}

	if code.Expired(now) {
		t.Fatalf("fresh code should not be expired")
	}
	if code.Expired(now.Add(9 * time.Minute)) {
		t.Fatalf("code inside ttl should not be expired")
	}
	if !code.Expired(now.Add(10 * time.Minute)) {
		t.Fatalf("code at its deadline should be expired")
	}
	if !code.Expired(now.Add(time.Hour)) {
		t.Fatalf("stale code should be expired")
	}
}

func TestValidRole(t *testing.T) {
	t.Parallel()

	if !ValidRole(RoleUser) || !ValidRole(RoleAdmin) {
		t.Fatalf("builtin roles should be valid")
	}
	if ValidRole("superuser") || ValidRole("") {
		t.Fatalf("unknown roles should be rejected")
	}
}
