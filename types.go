package authgate

import (
	"context"
	"time"
)

// UserStatus represents the lifecycle state of a user account.
type UserStatus uint8

const (
	// UserActive is the only status allowed to authenticate.
	UserActive UserStatus = iota
	// UserDisabled marks a deactivated account. Sessions referencing a
	// disabled account report "not logged in".
	UserDisabled
)

// User is the account record consumed from the host application's store.
// The engine never creates or deletes users; it reads them and updates
// password hash, profile fields, and last-login timestamp.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Status       UserStatus
}

// SecuritySettings is the read-mostly singleton loaded on every operation.
// Zero fields fall back to the engine's configured defaults.
type SecuritySettings struct {
	CaptchaSecret string
	MaxAttempts   int
	LockoutWindow time.Duration
}

// UserStore is the interface the host application implements to integrate
// authgate with its user database. Identifier lookup matches username or
// email of active users; implementations return [ErrUserNotFound] when no
// row matches and [ErrEmailInUse] when a profile update violates email
// uniqueness.
type UserStore interface {
	FindUserByIdentifier(ctx context.Context, identifier string) (User, error)
	FindUserByID(ctx context.Context, userID string) (User, error)
	UpdatePassword(ctx context.Context, userID, newHash string) error
	UpdateProfile(ctx context.Context, userID, fullName, email string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

// MailDispatcher delivers the password-reset mail. The engine builds the
// message; transport is the host's concern. Implementations must apply
// their own bounded timeout beyond ctx.
type MailDispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}
