// Package session provides the Redis-backed session store and the manager
// that issues, validates, and destroys authenticated sessions.
package session

// Session is the server-side state of one authenticated login. The
// identifier is generated fresh at creation and is never reused from any
// pre-authentication session.
type Session struct {
	SessionID string
	UserID    string
	Username  string
	FullName  string

	LoggedIn  bool
	LoginTime int64

	CreatedAt int64
	ExpiresAt int64
}
