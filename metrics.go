package keygate

import "sync/atomic"

// MetricID defines a public type used by keygate APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricKeyGenerated is an exported constant or variable used by the key lifecycle engine.
	MetricKeyGenerated MetricID = iota
	// MetricKeyRotated is an exported constant or variable used by the key lifecycle engine.
	MetricKeyRotated
	// MetricKeyRevoked is an exported constant or variable used by the key lifecycle engine.
	MetricKeyRevoked
	// MetricKeyDeleted is an exported constant or variable used by the key lifecycle engine.
	MetricKeyDeleted
	// MetricEncrypt is an exported constant or variable used by the key lifecycle engine.
	MetricEncrypt
	// MetricDecrypt is an exported constant or variable used by the key lifecycle engine.
	MetricDecrypt
	// MetricDecryptAuthFailure is an exported constant or variable used by the key lifecycle engine.
	MetricDecryptAuthFailure
	// MetricMAC is an exported constant or variable used by the key lifecycle engine.
	MetricMAC
	// MetricAuthSuccess is an exported constant or variable used by the key lifecycle engine.
	MetricAuthSuccess
	// MetricAuthFailure is an exported constant or variable used by the key lifecycle engine.
	MetricAuthFailure
	// MetricAuthCancelled is an exported constant or variable used by the key lifecycle engine.
	MetricAuthCancelled
	// MetricSessionExpired is an exported constant or variable used by the key lifecycle engine.
	MetricSessionExpired
	// MetricSessionInvalidated is an exported constant or variable used by the key lifecycle engine.
	MetricSessionInvalidated
	// MetricAuditPerformed is an exported constant or variable used by the key lifecycle engine.
	MetricAuditPerformed

	metricCount
)

// MetricsConfig defines a public type used by keygate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// Metrics is a fixed-slot atomic counter set. A nil or disabled Metrics is
// a no-op on every path.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enabled: true}
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
