package authgate

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	maxIdentifierLength = 254
	maxEmailLength      = 254
	maxFullNameLength   = 100
	maxPasswordLength   = 1024
	maxCaptchaLength    = 4096
)

// Input validation runs before any store access. Failures surface as
// ErrInvalidInput and never write a LoginAttempt row.

func validateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier required", ErrInvalidInput)
	}
	if len(identifier) > maxIdentifierLength {
		return fmt.Errorf("%w: identifier too long", ErrInvalidInput)
	}
	if strings.ContainsAny(identifier, "\x00\r\n") {
		return fmt.Errorf("%w: identifier contains control characters", ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: email too long", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

func validateFullName(fullName string) error {
	if strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("%w: full name required", ErrInvalidInput)
	}
	if len(fullName) > maxFullNameLength {
		return fmt.Errorf("%w: full name too long", ErrInvalidInput)
	}
	if strings.ContainsAny(fullName, "\x00\r\n") {
		return fmt.Errorf("%w: full name contains control characters", ErrInvalidInput)
	}
	return nil
}

func validateLoginPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password required", ErrInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	return nil
}

func validateCaptchaResponse(response string) error {
	if len(response) > maxCaptchaLength {
		return fmt.Errorf("%w: captcha response too long", ErrInvalidInput)
	}
	return nil
}
