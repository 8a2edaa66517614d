package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nvoss/authgate/internal/attempts"
	"github.com/nvoss/authgate/internal/captcha"
	"github.com/nvoss/authgate/internal/settings"
	"github.com/nvoss/authgate/internal/stores"
	"github.com/nvoss/authgate/password"
	"github.com/nvoss/authgate/session"
)

// Engine is the authentication and credential-lifecycle engine. Build one
// with [New] and share it; all methods are safe for concurrent use.
type Engine struct {
	config Config

	redis  redis.UniversalClient
	users  UserStore
	mailer MailDispatcher

	hasher    *password.Argon2
	dummyHash string

	attempts     *attempts.Tracker
	gate         *captcha.Gate
	settings     *settings.Provider
	sessions     *session.Manager
	sessionStore *session.Store
	resetStore   *stores.ResetTokenStore

	audit   *auditDispatcher
	metrics *Metrics

	now func() time.Time
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	event.IP = clientIPFromContext(ctx)
	e.audit.Emit(ctx, event)
}

// loadSettings resolves the effective security settings for one operation.
func (e *Engine) loadSettings(ctx context.Context) (settings.Settings, error) {
	s, err := e.settings.Load(ctx)
	if err != nil {
		e.metrics.Inc(MetricStorageFault)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventStorageFault,
			Error:     err.Error(),
		})
		return settings.Settings{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s, nil
}

// Logout destroys the session identified by sessionID. Destroying an
// unknown or already-destroyed session is not an error.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	sess, err := e.sessions.Get(ctx, sessionID, e.now())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.sessions.Destroy(ctx, sess.UserID, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(MetricSessionDestroyed)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventLogout,
		UserID:    sess.UserID,
		SessionID: sessionID,
		Success:   true,
	})

	return nil
}

// CurrentUser resolves a session identifier to its user, re-validating
// both sides: the session must be live and the account must still be
// active. Returns [ErrNotAuthenticated] otherwise.
func (e *Engine) CurrentUser(ctx context.Context, sessionID string) (User, *session.Session, error) {
	if sessionID == "" {
		return User{}, nil, ErrNotAuthenticated
	}

	sess, err := e.sessions.Get(ctx, sessionID, e.now())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, nil, ErrNotAuthenticated
		}
		return User{}, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !sess.LoggedIn {
		return User{}, nil, ErrNotAuthenticated
	}

	user, err := e.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, nil, ErrNotAuthenticated
		}
		return User{}, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user.Status != UserActive {
		return User{}, nil, ErrNotAuthenticated
	}

	return user, sess, nil
}

// IsLoggedIn reports whether sessionID maps to a live session of an
// active user.
func (e *Engine) IsLoggedIn(ctx context.Context, sessionID string) bool {
	_, _, err := e.CurrentUser(ctx, sessionID)
	return err == nil
}

// Ping checks Redis connectivity and returns the round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	return e.sessionStore.Ping(ctx)
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	e.audit.Close()
}
