package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvoss/authgate/password"
)

// UpdateProfile changes a user's full name and email, and optionally the
// password when newPassword is non-empty. Validation runs before any
// store access; an email held by another active user surfaces as
// [ErrEmailInUse].
func (e *Engine) UpdateProfile(ctx context.Context, userID, fullName, email, newPassword string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if err := validateFullName(fullName); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if newPassword != "" {
		if len(newPassword) > maxPasswordLength {
			return fmt.Errorf("%w: password too long", ErrInvalidInput)
		}
		if err := password.CheckPolicy(newPassword); err != nil {
			return fmt.Errorf("%w: %v", ErrWeakPassword, err)
		}
	}

	user, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return e.storeFault(ctx, "", err)
	}
	if user.Status != UserActive {
		return ErrNotAuthenticated
	}

	if err := e.users.UpdateProfile(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return ErrEmailInUse
		}
		return e.storeFault(ctx, "", err)
	}

	if newPassword != "" {
		newHash, err := e.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := e.users.UpdatePassword(ctx, userID, newHash); err != nil {
			return e.storeFault(ctx, "", err)
		}
	}

	e.metrics.Inc(MetricProfileUpdated)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventProfileUpdate,
		UserID:    userID,
		Success:   true,
		Metadata: map[string]string{
			"password_changed": fmt.Sprintf("%t", newPassword != ""),
		},
	})

	return nil
}
