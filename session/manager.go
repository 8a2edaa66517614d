package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

const sessionIDBytes = 16

// NewID returns a fresh 128-bit session identifier, base64url-encoded
// without padding.
func NewID() (string, error) {
	var raw [sessionIDBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// Manager issues and destroys sessions on top of a [Store].
type Manager struct {
	store    *Store
	lifetime time.Duration
}

// NewManager creates a Manager with the given session lifetime.
func NewManager(store *Store, lifetime time.Duration) *Manager {
	return &Manager{store: store, lifetime: lifetime}
}

// Create issues a session for the user. The identifier is always
// generated here — callers cannot supply one, so a pre-authentication
// session id can never become privileged (fixation protection). The
// session is persisted before Create returns.
func (m *Manager) Create(ctx context.Context, userID, username, fullName string, now time.Time) (*Session, error) {
	sessionID, err := NewID()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		FullName:  fullName,
		LoggedIn:  true,
		LoginTime: now.Unix(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(m.lifetime).Unix(),
	}

	if err := m.store.Save(ctx, sess, m.lifetime); err != nil {
		return nil, err
	}

	return sess, nil
}

// Get fetches a live session, evaluating expiry against now. Returns
// redis.Nil via the store when the session is missing or expired.
func (m *Manager) Get(ctx context.Context, sessionID string, now time.Time) (*Session, error) {
	return m.store.Get(ctx, sessionID, now)
}

// Destroy invalidates the session identifier and removes all server-side
// state, not just a flag.
func (m *Manager) Destroy(ctx context.Context, userID, sessionID string) error {
	return m.store.Delete(ctx, userID, sessionID)
}

// DestroyAllForUser removes every session belonging to the user.
func (m *Manager) DestroyAllForUser(ctx context.Context, userID string) error {
	return m.store.DeleteAllForUser(ctx, userID)
}
