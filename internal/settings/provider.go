// Package settings loads the security-settings singleton (CAPTCHA secret,
// lockout thresholds) from a pluggable source with configured fallbacks.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the settings backend is unreachable.
var ErrUnavailable = errors.New("security settings unavailable")

// Settings is the read-mostly security configuration singleton. It is
// mutated only by admin tooling; this package reads it.
type Settings struct {
	CaptchaSecret string
	MaxAttempts   int
	LockoutWindow time.Duration
}

// Source yields the stored settings row. ok=false means no row exists and
// the provider should fall back to defaults.
type Source interface {
	Load(ctx context.Context) (s Settings, ok bool, err error)
}

// Static is a Source backed by a fixed value, used when no external
// settings store is wired.
type Static struct {
	Settings Settings
}

// Load returns the fixed settings.
func (s Static) Load(context.Context) (Settings, bool, error) {
	return s.Settings, true, nil
}

type settingsDocument struct {
	CaptchaSecret        string `json:"captcha_secret"`
	MaxAttempts          int    `json:"max_attempts"`
	LockoutWindowSeconds int64  `json:"lockout_window_seconds"`
}

// RedisSource reads a JSON settings document from a fixed Redis key.
type RedisSource struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisSource creates a RedisSource. key defaults to "asec".
func NewRedisSource(redisClient redis.UniversalClient, key string) *RedisSource {
	if key == "" {
		key = "asec"
	}
	return &RedisSource{redis: redisClient, key: key}
}

// Load fetches and decodes the settings document. A missing key is not an
// error; a corrupt document is.
func (s *RedisSource) Load(ctx context.Context) (Settings, bool, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Settings{}, false, fmt.Errorf("%w: corrupt settings document: %v", ErrUnavailable, err)
	}

	return Settings{
		CaptchaSecret: doc.CaptchaSecret,
		MaxAttempts:   doc.MaxAttempts,
		LockoutWindow: time.Duration(doc.LockoutWindowSeconds) * time.Second,
	}, true, nil
}

// Provider reads settings on every call — no cross-request caching — and
// fills zero fields from the fallback so a partial row never disables
// lockout.
type Provider struct {
	source   Source
	fallback Settings
}

// NewProvider creates a Provider. source may be nil, in which case the
// fallback is always returned.
func NewProvider(source Source, fallback Settings) *Provider {
	return &Provider{source: source, fallback: fallback}
}

// Load returns the effective settings for one operation.
func (p *Provider) Load(ctx context.Context) (Settings, error) {
	if p.source == nil {
		return p.fallback, nil
	}

	loaded, ok, err := p.source.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return p.fallback, nil
	}

	if loaded.MaxAttempts <= 0 {
		loaded.MaxAttempts = p.fallback.MaxAttempts
	}
	if loaded.LockoutWindow <= 0 {
		loaded.LockoutWindow = p.fallback.LockoutWindow
	}
	if loaded.CaptchaSecret == "" {
		loaded.CaptchaSecret = p.fallback.CaptchaSecret
	}

	return loaded, nil
}
