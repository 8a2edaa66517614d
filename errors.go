package authgate

import "errors"

var (
	// ErrInvalidInput is returned when a field fails validation before any
	// store access (missing, too long, malformed).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned when the identifier has reached the
	// failed-attempt threshold within the lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrCaptchaFailed is returned when a required CAPTCHA response is
	// missing or rejected by the verifier.
	ErrCaptchaFailed = errors.New("captcha verification failed")
	// ErrCaptchaUnavailable is returned when the external CAPTCHA verifier
	// cannot be reached. Verification never silently succeeds.
	ErrCaptchaUnavailable = errors.New("captcha verifier unavailable")
	// ErrWeakPassword is returned when a new password violates the
	// password policy.
	ErrWeakPassword = errors.New("password policy violation")
	// ErrEmailInUse is returned when a profile update targets an email
	// already held by another active user.
	ErrEmailInUse = errors.New("email already in use")
	// ErrResetTokenInvalid is returned for unknown, expired, replaced, or
	// already-redeemed password-reset tokens.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrStoreUnavailable indicates an infrastructure fault in the
	// persistent store. Callers should treat it as retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMailDelivery indicates the reset mail could not be dispatched.
	// The issued token remains valid.
	ErrMailDelivery = errors.New("mail delivery failed")
	// ErrNotAuthenticated is returned when a session is missing, destroyed,
	// expired, or references a deactivated account.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUserNotFound is returned by [UserStore] implementations when no
	// matching user row exists. The engine never exposes it on login paths.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned when a required dependency was not
	// wired at build time.
	ErrEngineNotReady = errors.New("engine not initialized")
)
