package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuildRequiresRedisAndUserStore(t *testing.T) {
	if _, err := New().Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without redis, got %v", err)
	}

	_, rdb := newTestRedis(t)
	if _, err := New().WithRedis(rdb).Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without user store, got %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.Attempts.CaptchaThreshold = cfg.Attempts.MaxAttempts + 1

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(newMockUserStore()).
		Build()
	if !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady for bad config, got %v", err)
	}
}

func TestBuildDefaults(t *testing.T) {
	_, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(newMockUserStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if engine.gate == nil || engine.attempts == nil || engine.sessions == nil || engine.resetStore == nil {
		t.Fatal("expected all components wired")
	}
	if engine.dummyHash == "" {
		t.Fatal("expected dummy hash to be precomputed")
	}
	if engine.now == nil {
		t.Fatal("expected clock to be set")
	}
}

func TestWithSecuritySettingsOverridesThresholds(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	store := newMockUserStore()
	seedUser(t, store, "u1", "alice", "alice@example.com", "Str0ng-password")

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(store).
		WithSecuritySettings(SecuritySettings{
			MaxAttempts:   2,
			LockoutWindow: 15 * time.Minute,
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// The pinned row lowers the lockout threshold below the config default.
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, "alice", "wrong-Password1", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := engine.Login(ctx, "alice", "Str0ng-password", ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked at lowered threshold, got %v", err)
	}
}
