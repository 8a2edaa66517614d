package authgate

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvoss/authgate/internal/stores"
	"github.com/nvoss/authgate/internal/token"
	"github.com/nvoss/authgate/password"
)

const (
	enumerationDelayMin  = 20 * time.Millisecond
	enumerationDelaySpan = 20 * time.Millisecond
)

// RequestPasswordReset issues a single-use reset token for the account
// behind email and dispatches the reset mail. From the caller's view the
// outcome is identical for known and unknown addresses; the unknown
// branch sleeps a randomized interval so its response time matches the
// token-issuance work of the known branch.
//
// A repeated request replaces the prior token atomically, so at most one
// token is redeemable per user at any instant. Mail dispatch failure does
// not roll back issuance: [ErrMailDelivery] is returned and the token
// stays valid for a retried send.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if e.mailer == nil {
		return fmt.Errorf("%w: no mail dispatcher configured", ErrEngineNotReady)
	}

	user, err := e.users.FindUserByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			sleepEnumerationDelay(ctx)
			e.metrics.Inc(MetricResetRequested)
			e.emitAudit(ctx, AuditEvent{
				EventType:  auditEventResetRequest,
				Identifier: email,
				Metadata:   map[string]string{"known": "false"},
			})
			return nil
		}
		return e.storeFault(ctx, email, err)
	}
	if user.Status != UserActive {
		sleepEnumerationDelay(ctx)
		e.metrics.Inc(MetricResetRequested)
		e.emitAudit(ctx, AuditEvent{
			EventType:  auditEventResetRequest,
			Identifier: email,
			Metadata:   map[string]string{"known": "false"},
		})
		return nil
	}

	resetToken, err := token.New()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := e.now()
	expiresAt := now.Add(e.config.Reset.TokenTTL)

	err = e.resetStore.Upsert(ctx, user.ID, token.Hash(resetToken), expiresAt, e.config.Reset.TokenTTL)
	if err != nil {
		return e.storeFault(ctx, email, err)
	}

	e.metrics.Inc(MetricResetRequested)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventResetRequest,
		UserID:    user.ID,
		Success:   true,
	})

	resetURL := strings.TrimRight(e.config.Reset.BaseURL, "/") + "/reset_password?token=" + resetToken
	body := "Hello " + user.FullName + ",\n\n" +
		"A password reset was requested for your account. Open the link below " +
		"to choose a new password. The link is valid for " +
		e.config.Reset.TokenTTL.String() + " and can be used once.\n\n" +
		resetURL + "\n\n" +
		"If you did not request this, you can ignore this message.\n"

	if err := e.mailer.Send(ctx, user.Email, e.config.Reset.MailSubject, body); err != nil {
		e.metrics.Inc(MetricMailFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventMailFailure,
			UserID:    user.ID,
			Error:     err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return nil
}

// ResetPassword redeems a reset token and sets a new password. The token
// is consumed atomically: a second redemption, concurrent or later, is
// rejected even inside the expiry window. All of the user's sessions are
// destroyed after a successful reset.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	// The token format is fixed, so anything else is rejected before the
	// store is touched.
	if len(resetToken) != token.Length || !isLowerHex(resetToken) {
		return ErrResetTokenInvalid
	}
	if newPassword == "" || len(newPassword) > maxPasswordLength {
		return fmt.Errorf("%w: password required", ErrInvalidInput)
	}
	if err := password.CheckPolicy(newPassword); err != nil {
		// Policy runs before consumption so a weak password does not burn
		// the token.
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	record, err := e.resetStore.Consume(ctx, token.Hash(resetToken), e.now())
	if err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			e.metrics.Inc(MetricResetConfirmFailure)
			e.emitAudit(ctx, AuditEvent{
				EventType: auditEventResetConfirm,
				Error:     ErrResetTokenInvalid.Error(),
			})
			return ErrResetTokenInvalid
		}
		return e.storeFault(ctx, "", err)
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.users.UpdatePassword(ctx, record.UserID, newHash); err != nil {
		return e.storeFault(ctx, "", err)
	}

	// Credential change invalidates every existing session. Best effort:
	// the reset itself already succeeded.
	if err := e.sessions.DestroyAllForUser(ctx, record.UserID); err != nil {
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventStorageFault,
			UserID:    record.UserID,
			Error:     err.Error(),
		})
	}

	e.metrics.Inc(MetricResetConfirmSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventResetConfirm,
		UserID:    record.UserID,
		Success:   true,
	})

	return nil
}

func isLowerHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// sleepEnumerationDelay blocks for a cryptographically random interval in
// [20ms, 40ms), or until ctx is done.
func sleepEnumerationDelay(ctx context.Context) {
	var raw [8]byte
	jitter := time.Duration(0)
	if _, err := rand.Read(raw[:]); err == nil {
		jitter = time.Duration(binary.BigEndian.Uint64(raw[:]) % uint64(enumerationDelaySpan))
	}

	timer := time.NewTimer(enumerationDelayMin + jitter)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
