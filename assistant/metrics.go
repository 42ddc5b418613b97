package assistant

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of a binder's counters.
type MetricsSnapshot struct {
	Dispatches int64
	Changes    int64
	Faults     int64
	Assistants int64
}

// Metrics counts dispatch cycles seen by a binder.
type Metrics struct {
	dispatches atomic.Int64
	changes    atomic.Int64
	faults     atomic.Int64
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordDispatch counts one dispatch entering the cycle.
func (m *Metrics) RecordDispatch() {
	m.dispatches.Add(1)
}

// RecordChange counts one dispatch that changed the top-level state.
func (m *Metrics) RecordChange() {
	m.changes.Add(1)
}

// RecordFault counts one dispatch aborted by an error.
func (m *Metrics) RecordFault() {
	m.faults.Add(1)
}

// Snapshot copies the counters. Assistants is left for the binder to fill.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Dispatches: m.dispatches.Load(),
		Changes:    m.changes.Load(),
		Faults:     m.faults.Load(),
	}
}
