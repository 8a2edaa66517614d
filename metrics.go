package authgate

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential rejections.
	MetricLoginFailure
	// MetricLoginLocked counts logins rejected by the lockout threshold.
	MetricLoginLocked
	// MetricCaptchaFailed counts rejected CAPTCHA responses.
	MetricCaptchaFailed
	// MetricCaptchaBypassed counts verifications skipped because no secret
	// is configured.
	MetricCaptchaBypassed
	// MetricSessionCreated counts issued sessions.
	MetricSessionCreated
	// MetricSessionDestroyed counts explicit logouts.
	MetricSessionDestroyed
	// MetricResetRequested counts password-reset requests (both branches,
	// known and unknown email).
	MetricResetRequested
	// MetricResetConfirmSuccess counts redeemed reset tokens.
	MetricResetConfirmSuccess
	// MetricResetConfirmFailure counts rejected reset redemptions.
	MetricResetConfirmFailure
	// MetricProfileUpdated counts successful profile updates.
	MetricProfileUpdated
	// MetricMailFailure counts reset mails that could not be dispatched.
	MetricMailFailure
	// MetricStorageFault counts operations aborted by store errors.
	MetricStorageFault
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic per-ID counters. All methods are safe for
// concurrent use; a disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
