package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvoss/authgate/session"
)

// dummyVerifyPassword is hashed at build time so rejected logins for
// unknown identifiers still pay one argon2 verification. Without it the
// response-time difference would reveal which identifiers exist.
const dummyVerifyPassword = "authgate-dummy-verify"

// Login authenticates identifier/password and issues a fresh session.
//
// The decision order is fixed: input validation, lockout check, CAPTCHA
// gate, then credential verification. A locked identifier is rejected
// before credentials are examined, so lockout cannot be probed for
// password correctness. Unknown identifier, wrong password, and
// deactivated account all surface as [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, identifier, passwd, captchaResponse string) (*session.Session, error) {
	if err := validateIdentifier(identifier); err != nil {
		return nil, err
	}
	if err := validateLoginPassword(passwd); err != nil {
		return nil, err
	}
	if err := validateCaptchaResponse(captchaResponse); err != nil {
		return nil, err
	}

	sec, err := e.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()

	// The lockout decision and the attempt row are one atomic Redis
	// script. The row is provisional until the credential outcome is
	// known: kept on a credential failure, released when the rejection is
	// not one (CAPTCHA, store fault), deleted with the rest on success.
	recent, locked, attemptRow, err := e.attempts.Reserve(
		ctx, identifier, clientIPFromContext(ctx), now, sec.LockoutWindow, sec.MaxAttempts)
	if err != nil {
		return nil, e.storeFault(ctx, identifier, err)
	}

	if locked {
		// The reserved row stands, so a sustained attack keeps the
		// identifier locked instead of the window quietly draining.
		e.metrics.Inc(MetricLoginLocked)
		e.emitAudit(ctx, AuditEvent{
			EventType:  auditEventLoginLocked,
			Identifier: identifier,
		})
		return nil, ErrAccountLocked
	}

	if e.gate.Required(recent) {
		ok, bypassed, err := e.gate.Verify(ctx, sec.CaptchaSecret, captchaResponse, clientIPFromContext(ctx))
		if err != nil {
			e.releaseAttempt(ctx, identifier, attemptRow)
			e.emitAudit(ctx, AuditEvent{
				EventType:  auditEventCaptchaFailed,
				Identifier: identifier,
				Error:      err.Error(),
			})
			return nil, fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
		}
		if bypassed {
			e.metrics.Inc(MetricCaptchaBypassed)
			e.emitAudit(ctx, AuditEvent{
				EventType:  auditEventCaptchaBypassed,
				Identifier: identifier,
				Success:    true,
			})
		}
		if !ok {
			// A failed challenge is not a credential failure: its reserved
			// row is released, so a CAPTCHA outage cannot lock users out.
			e.releaseAttempt(ctx, identifier, attemptRow)
			e.metrics.Inc(MetricCaptchaFailed)
			e.emitAudit(ctx, AuditEvent{
				EventType:  auditEventCaptchaFailed,
				Identifier: identifier,
			})
			return nil, ErrCaptchaFailed
		}
	}

	user, ok, err := e.verifyCredentials(ctx, identifier, passwd)
	if err != nil {
		e.releaseAttempt(ctx, identifier, attemptRow)
		return nil, e.storeFault(ctx, identifier, err)
	}
	if !ok {
		// The reserved row becomes the failure record.
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType:  auditEventLogin,
			Identifier: identifier,
			Error:      ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	e.maybeUpgradeHash(ctx, &user, passwd)

	if err := e.attempts.Clear(ctx, identifier); err != nil {
		return nil, e.storeFault(ctx, identifier, err)
	}

	sess, err := e.sessions.Create(ctx, user.ID, user.Username, user.FullName, now)
	if err != nil {
		return nil, e.storeFault(ctx, identifier, err)
	}

	if err := e.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Last-login is bookkeeping; the login itself already succeeded.
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventStorageFault,
			UserID:    user.ID,
			Error:     err.Error(),
		})
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.metrics.Inc(MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType:  auditEventLogin,
		UserID:     user.ID,
		Identifier: identifier,
		SessionID:  sess.SessionID,
		Success:    true,
	})

	return sess, nil
}

// verifyCredentials resolves the identifier and checks the password.
// ok=false means the pair must be rejected; the reason (unknown user,
// deactivated account, wrong password) is deliberately not exposed. Every
// rejection path performs exactly one argon2 verification.
func (e *Engine) verifyCredentials(ctx context.Context, identifier, passwd string) (User, bool, error) {
	user, err := e.users.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_, _ = e.hasher.Verify(passwd, e.dummyHash)
			return User{}, false, nil
		}
		return User{}, false, err
	}

	if user.Status != UserActive {
		_, _ = e.hasher.Verify(passwd, e.dummyHash)
		return User{}, false, nil
	}

	match, err := e.hasher.Verify(passwd, user.PasswordHash)
	if err != nil {
		// A corrupt stored hash rejects like a wrong password rather than
		// leaking hash-format details to the caller.
		return User{}, false, nil
	}

	return user, match, nil
}

// maybeUpgradeHash transparently re-hashes the password when the stored
// hash predates the current parameters. Best effort: a failure leaves the
// old hash in place and the login proceeds.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user *User, passwd string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}

	needs, err := e.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := e.hasher.Hash(passwd)
	if err != nil {
		return
	}
	if err := e.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return
	}
	user.PasswordHash = newHash
}

// releaseAttempt removes a reserved attempt row. Best effort: a leftover
// row over-counts by one, which errs toward lockout rather than past it.
func (e *Engine) releaseAttempt(ctx context.Context, identifier, member string) {
	if err := e.attempts.Release(ctx, identifier, member); err != nil {
		e.metrics.Inc(MetricStorageFault)
		e.emitAudit(ctx, AuditEvent{
			EventType:  auditEventStorageFault,
			Identifier: identifier,
			Error:      err.Error(),
		})
	}
}

func (e *Engine) storeFault(ctx context.Context, identifier string, err error) error {
	e.metrics.Inc(MetricStorageFault)
	e.emitAudit(ctx, AuditEvent{
		EventType:  auditEventStorageFault,
		Identifier: identifier,
		Error:      err.Error(),
	})
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
