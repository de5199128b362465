package goGrant

import "sync/atomic"

// MetricID defines a public type used by goGrant APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricPasswordGrantSuccess is an exported constant or variable used by the grant engine.
	MetricPasswordGrantSuccess MetricID = iota
	// MetricPasswordGrantFailure is an exported constant or variable used by the grant engine.
	MetricPasswordGrantFailure
	// MetricClientCredentialsSuccess is an exported constant or variable used by the grant engine.
	MetricClientCredentialsSuccess
	// MetricClientCredentialsFailure is an exported constant or variable used by the grant engine.
	MetricClientCredentialsFailure
	// MetricRefreshSuccess is an exported constant or variable used by the grant engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the grant engine.
	MetricRefreshFailure
	// MetricRevoke is an exported constant or variable used by the grant engine.
	MetricRevoke
	// MetricRevokeCascade is an exported constant or variable used by the grant engine.
	MetricRevokeCascade
	// MetricTokenAuthenticated is an exported constant or variable used by the grant engine.
	MetricTokenAuthenticated
	// MetricTokenRejected is an exported constant or variable used by the grant engine.
	MetricTokenRejected
	// MetricCacheInsertSkipped is an exported constant or variable used by the grant engine.
	MetricCacheInsertSkipped
	// MetricCacheUnavailable is an exported constant or variable used by the grant engine.
	MetricCacheUnavailable
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goGrant APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by goGrant APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
