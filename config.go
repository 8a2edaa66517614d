package authgate

import (
	"errors"
	"time"
)

// Config holds all engine configuration. Instances are intended to be
// configured during initialization and then treated as immutable.
type Config struct {
	Attempts AttemptsConfig
	Captcha  CaptchaConfig
	Password PasswordConfig
	Reset    ResetConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
ATTEMPTS CONFIG
====================================
*/

// AttemptsConfig controls failed-login tracking and lockout. MaxAttempts
// and LockoutWindow act as defaults; a [SecuritySettings] row loaded at
// request time overrides them.
type AttemptsConfig struct {
	MaxAttempts      int
	LockoutWindow    time.Duration
	CaptchaThreshold int
	RedisPrefix      string
}

/*
====================================
CAPTCHA CONFIG
====================================
*/

// CaptchaConfig controls the external CAPTCHA verifier. An empty Secret
// (both here and in loaded settings) bypasses verification; the bypass is
// audited.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters. When UpgradeOnLogin is set,
// hashes produced under weaker parameters are transparently re-hashed on
// the next successful login.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// ResetConfig controls password-reset token issuance. BaseURL is the
// public prefix of the reset page; the engine appends
// "/reset_password?token=<token>".
type ResetConfig struct {
	TokenTTL    time.Duration
	BaseURL     string
	MailSubject string
	RedisPrefix string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session persistence.
type SessionConfig struct {
	RedisPrefix string
	Lifetime    time.Duration
}

/*
====================================
AUDIT + METRICS CONFIG
====================================
*/

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULTS + VALIDATION
====================================
*/

// DefaultConfig returns the recommended production configuration: 5
// attempts per 15-minute window, CAPTCHA from the 2nd failure, 1h reset
// tokens, 24h sessions, and OWASP-aligned argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Attempts: AttemptsConfig{
			MaxAttempts:      5,
			LockoutWindow:    15 * time.Minute,
			CaptchaThreshold: 2,
			RedisPrefix:      "ala",
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://hcaptcha.com/siteverify",
			Timeout:   5 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Reset: ResetConfig{
			TokenTTL:    time.Hour,
			MailSubject: "Password reset",
			RedisPrefix: "art",
		},
		Session: SessionConfig{
			RedisPrefix: "ags",
			Lifetime:    24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Attempts.MaxAttempts <= 0 {
		return errors.New("attempts: max attempts must be > 0")
	}
	if cfg.Attempts.LockoutWindow <= 0 {
		return errors.New("attempts: lockout window must be > 0")
	}
	if cfg.Attempts.CaptchaThreshold <= 0 {
		return errors.New("attempts: captcha threshold must be > 0")
	}
	if cfg.Attempts.CaptchaThreshold > cfg.Attempts.MaxAttempts {
		return errors.New("attempts: captcha threshold must not exceed max attempts")
	}
	if cfg.Captcha.Timeout <= 0 {
		return errors.New("captcha: timeout must be > 0")
	}
	if cfg.Reset.TokenTTL <= 0 {
		return errors.New("reset: token ttl must be > 0")
	}
	if cfg.Session.Lifetime <= 0 {
		return errors.New("session: lifetime must be > 0")
	}
	return nil
}
