package authgate

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	cases := []struct {
		name       string
		identifier string
		wantErr    bool
	}{
		{"plain username", "alice", false},
		{"email form", "alice@example.com", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 255), true},
		{"newline", "ali\nce", true},
		{"nul byte", "ali\x00ce", true},
	}

	for _, tc := range cases {
		err := validateIdentifier(tc.identifier)
		if tc.wantErr && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"plain", "alice@example.com", false},
		{"subdomain", "a@mail.example.co.uk", false},
		{"empty", "", true},
		{"no at sign", "alice.example.com", true},
		{"display name form", "Alice <alice@example.com>", true},
		{"trailing junk", "alice@example.com,bob@example.com", true},
		{"too long", strings.Repeat("a", 250) + "@e.com", true},
	}

	for _, tc := range cases {
		err := validateEmail(tc.email)
		if tc.wantErr && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestValidateFullName(t *testing.T) {
	if err := validateFullName("Alice Example"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	for _, bad := range []string{"", "   ", strings.Repeat("x", 101), "a\nb"} {
		if err := validateFullName(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestValidateLoginPassword(t *testing.T) {
	if err := validateLoginPassword("anything goes at login"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := validateLoginPassword(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty: expected ErrInvalidInput, got %v", err)
	}
	if err := validateLoginPassword(strings.Repeat("p", 1025)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized: expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateCaptchaResponse(t *testing.T) {
	if err := validateCaptchaResponse(""); err != nil {
		t.Fatalf("empty response is legal input, got %v", err)
	}
	if err := validateCaptchaResponse(strings.Repeat("c", 4097)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized: expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := validateConfig(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Attempts.CaptchaThreshold = cfg.Attempts.MaxAttempts + 1
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected threshold above max attempts to be rejected")
	}

	cfg = DefaultConfig()
	cfg.Attempts.MaxAttempts = 0
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected zero max attempts to be rejected")
	}

	cfg = DefaultConfig()
	cfg.Session.Lifetime = 0
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected zero session lifetime to be rejected")
	}
}
