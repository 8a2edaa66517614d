package authgate

import (
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

// Builder assembles an [Engine]. Redis and a [UserStore] are required;
// everything else has working defaults.
type Builder struct {
	config          Config
	redis           redis.UniversalClient
	users           UserStore
	mailer          MailDispatcher
	captchaVerifier captcha.Verifier
	settingsSource  settings.Source
	auditSink       AuditSink
}

// New starts a builder with the default configuration.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client shared by all engine stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the host application's user store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithMailer sets the reset-mail dispatcher. Without one,
// [Engine.RequestPasswordReset] returns [ErrEngineNotReady].
func (b *Builder) WithMailer(mailer MailDispatcher) *Builder {
	b.mailer = mailer
	return b
}

// WithCaptchaVerifier overrides the default HTTP siteverify client.
func (b *Builder) WithCaptchaVerifier(verifier captcha.Verifier) *Builder {
	b.captchaVerifier = verifier
	return b
}

// WithSettingsSource sets the security-settings source. Without one, the
// configured defaults apply.
func (b *Builder) WithSettingsSource(source settings.Source) *Builder {
	b.settingsSource = source
	return b
}

// WithSecuritySettings pins a fixed [SecuritySettings] row, shorthand for a
// static settings source.
func (b *Builder) WithSecuritySettings(s SecuritySettings) *Builder {
	b.settingsSource = settings.Static{Settings: settings.Settings{
		CaptchaSecret: s.CaptchaSecret,
		MaxAttempts:   s.MaxAttempts,
		LockoutWindow: s.LockoutWindow,
	}}
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration, wires all components, and returns a
// ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrEngineNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store required", ErrEngineNotReady)
	}
	if err := validateConfig(b.config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	dummyHash, err := hasher.Hash(dummyVerifyPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	verifier := b.captchaVerifier
	if verifier == nil {
		verifier = captcha.NewHTTPVerifier(b.config.Captcha.VerifyURL, b.config.Captcha.Timeout)
	}

	sessionStore := session.NewStore(b.redis, b.config.Session.RedisPrefix)

	engine := &Engine{
		config:    b.config,
		redis:     b.redis,
		users:     b.users,
		mailer:    b.mailer,
		hasher:    hasher,
		dummyHash: dummyHash,
		attempts:  attempts.NewTracker(b.redis, b.config.Attempts.RedisPrefix),
		gate:      captcha.NewGate(verifier, b.config.Attempts.CaptchaThreshold),
		settings: settings.NewProvider(b.settingsSource, settings.Settings{
			CaptchaSecret: b.config.Captcha.Secret,
			MaxAttempts:   b.config.Attempts.MaxAttempts,
			LockoutWindow: b.config.Attempts.LockoutWindow,
		}),
		sessions:     session.NewManager(sessionStore, b.config.Session.Lifetime),
		sessionStore: sessionStore,
		resetStore:   stores.NewResetTokenStore(b.redis, b.config.Reset.RedisPrefix),
		audit:        newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:      NewMetrics(b.config.Metrics),
		now:          time.Now,
	}

	return engine, nil
}
