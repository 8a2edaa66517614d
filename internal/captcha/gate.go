// Package captcha decides when a CAPTCHA challenge is required and checks
// responses against an external verifier.
package captcha

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable indicates the external verifier could not be reached or
// answered with a transport-level failure.
var ErrUnavailable = errors.New("captcha verifier unavailable")

// Verifier validates a challenge response against an external service.
type Verifier interface {
	Verify(ctx context.Context, secret, response, remoteIP string) (bool, error)
}

// Gate applies the graduated CAPTCHA policy: a challenge is required once
// the recent-failure count reaches the threshold, which sits below the
// lockout threshold.
type Gate struct {
	verifier  Verifier
	threshold int
}

// NewGate creates a Gate. threshold defaults to 2.
func NewGate(verifier Verifier, threshold int) *Gate {
	if threshold <= 0 {
		threshold = 2
	}
	return &Gate{verifier: verifier, threshold: threshold}
}

// Required reports whether a challenge must accompany the next login given
// the identifier's recent failure count.
func (g *Gate) Required(recentFailures int) bool {
	return recentFailures >= g.threshold
}

// Verify checks a challenge response. An empty response fails closed. When
// no secret is configured, verification is bypassed and bypassed=true is
// returned so the caller can log it. A verifier transport failure surfaces
// as ErrUnavailable, never as a silent pass.
func (g *Gate) Verify(ctx context.Context, secret, response, remoteIP string) (ok bool, bypassed bool, err error) {
	if secret == "" {
		return true, true, nil
	}
	if response == "" {
		return false, false, nil
	}
	if g.verifier == nil {
		return false, false, ErrUnavailable
	}

	ok, err = g.verifier.Verify(ctx, secret, response, remoteIP)
	if err != nil {
		return false, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, false, nil
}
