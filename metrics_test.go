package authgate

import (
	"sync"
	"testing"
)

func TestMetricsIncAndValue(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricResetRequested)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricResetRequested); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricLoginFailure); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(snap.Counters))
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess) // must not panic
}

func TestMetricsOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(metricIDCount)
	m.Inc(MetricID(1000))
	if got := m.Value(MetricID(1000)); got != 0 {
		t.Fatalf("expected 0 for out-of-range id, got %d", got)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricSessionCreated)
	m.Inc(MetricSessionDestroyed)

	snap := m.Snapshot()
	if snap.Counters[MetricSessionCreated] != 1 || snap.Counters[MetricSessionDestroyed] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap.Counters)
	}

	// The snapshot is a copy, not a live view.
	m.Inc(MetricSessionCreated)
	if snap.Counters[MetricSessionCreated] != 1 {
		t.Fatal("snapshot mutated after Inc")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 16
	const perGoroutine = 500

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLoginFailure); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}
