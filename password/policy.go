package password

import "errors"

const minPolicyLength = 8

var (
	// ErrTooShort is returned for passwords under 8 characters.
	ErrTooShort = errors.New("password must be at least 8 characters")
	// ErrMissingLower is returned when no lowercase letter is present.
	ErrMissingLower = errors.New("password must contain a lowercase letter")
	// ErrMissingUpper is returned when no uppercase letter is present.
	ErrMissingUpper = errors.New("password must contain an uppercase letter")
	// ErrMissingDigit is returned when no digit is present.
	ErrMissingDigit = errors.New("password must contain a digit")
)

// CheckPolicy validates password strength: minimum length 8, at least one
// lowercase letter, one uppercase letter, and one digit. The first
// violated rule is returned.
func CheckPolicy(password string) error {
	if len(password) < minPolicyLength {
		return ErrTooShort
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	switch {
	case !hasLower:
		return ErrMissingLower
	case !hasUpper:
		return ErrMissingUpper
	case !hasDigit:
		return ErrMissingDigit
	}

	return nil
}
