package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func extractResetToken(t *testing.T, mailBody string) string {
	t.Helper()

	const marker = "token="
	idx := strings.Index(mailBody, marker)
	if idx < 0 {
		t.Fatalf("no reset token in mail body:\n%s", mailBody)
	}
	token := mailBody[idx+len(marker):]
	if nl := strings.IndexAny(token, "\r\n"); nl >= 0 {
		token = token[:nl]
	}
	if len(token) != 64 {
		t.Fatalf("unexpected token length %d", len(token))
	}
	return token
}

func TestResetRequestUnknownEmailIndistinguishable(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if mailer.count() != 0 {
		t.Fatal("expected no mail for unknown email")
	}

	// A deactivated account behaves like an unknown one.
	store.setStatus("u1", UserDisabled)
	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("expected silent success for disabled account, got %v", err)
	}
	if mailer.count() != 0 {
		t.Fatal("expected no mail for disabled account")
	}
}

func TestResetFlow(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	sess, err := engine.Login(ctx, "alice", "Str0ng-password", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	mail := mailer.last(t)
	if mail.To != "alice@example.com" {
		t.Fatalf("mail sent to %q", mail.To)
	}
	token := extractResetToken(t, mail.Body)

	if err := engine.ResetPassword(ctx, token, "N3w-strong-password"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Old password dead, new one live.
	if _, err := engine.Login(ctx, "alice", "Str0ng-password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "N3w-strong-password", ""); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}

	// The pre-reset session was destroyed.
	if engine.IsLoggedIn(ctx, sess.SessionID) {
		t.Fatal("expected pre-reset session to be destroyed")
	}

	// Single use: a second redemption of the same token fails.
	if err := engine.ResetPassword(ctx, token, "An0ther-strong-pw"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on replay, got %v", err)
	}
}

func TestResetRequestReplacesPriorToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	first := extractResetToken(t, mailer.last(t).Body)

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	second := extractResetToken(t, mailer.last(t).Body)

	if first == second {
		t.Fatal("expected a fresh token per request")
	}

	if err := engine.ResetPassword(ctx, first, "N3w-strong-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected replaced token rejected, got %v", err)
	}
	if err := engine.ResetPassword(ctx, second, "N3w-strong-password"); err != nil {
		t.Fatalf("expected current token accepted, got %v", err)
	}
}

func TestResetTokenExpires(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	base := time.Now()
	engine.now = func() time.Time { return base }

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	token := extractResetToken(t, mailer.last(t).Body)

	engine.now = func() time.Time {
		return base.Add(engine.config.Reset.TokenTTL + time.Minute)
	}

	if err := engine.ResetPassword(ctx, token, "N3w-strong-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestResetWeakPasswordKeepsTokenValid(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	token := extractResetToken(t, mailer.last(t).Body)

	if err := engine.ResetPassword(ctx, token, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	// Policy rejection happens before consumption, so the token survives.
	if err := engine.ResetPassword(ctx, token, "N3w-strong-password"); err != nil {
		t.Fatalf("expected token still valid after weak attempt, got %v", err)
	}
}

func TestResetMailFailureLeavesTokenValid(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")
	mailer := &mockMailer{err: errBackendDown}
	engine := newTestEngine(t, rdb, store, mailer)

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}

	// Issuance is not rolled back; the token in the undelivered mail still
	// redeems.
	token := extractResetToken(t, mailer.last(t).Body)
	if err := engine.ResetPassword(ctx, token, "N3w-strong-password"); err != nil {
		t.Fatalf("expected token valid despite mail failure, got %v", err)
	}
}

func TestResetRejectsMalformedTokens(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	engine := newTestEngine(t, rdb, newMockUserStore(), &mockMailer{})

	cases := []string{
		"",
		"short",
		strings.Repeat("g", 64), // right length, not hex
		strings.Repeat("a", 63),
		strings.Repeat("A", 64), // uppercase hex is not issued
	}

	for _, token := range cases {
		if err := engine.ResetPassword(ctx, token, "N3w-strong-password"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("token %q: expected ErrResetTokenInvalid, got %v", token, err)
		}
	}
}

func TestResetRequestWithoutMailer(t *testing.T) {
	_, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(newMockUserStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if err := engine.RequestPasswordReset(context.Background(), "alice@example.com"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
