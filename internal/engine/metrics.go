package engine

import "sync"

// Metrics counts orchestrator decision points: how many requests took each
// branch of the idempotency state machine (spec.md §4.6), and the status
// class of every response runIdempotent returns (WORK outcomes, replays,
// conflicts and idempotency-lookup failures alike). This is a deliberately small, in-process
// counter set — the teacher's per-RPC-method Prometheus text exporter
// (src/chainadapter/metrics/prometheus.go) tracks far more than any
// SPEC_FULL.md component names, so only its counter-struct idiom is kept;
// the exporter itself is dropped (see DESIGN.md).
type Metrics struct {
	mu sync.Mutex

	Work          int64
	ReplayedPrior int64
	Conflicts     int64

	Success  int64
	ClientErr int64
	ServerErr int64
}

func (m *Metrics) recordLookup(outcome lookupOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch outcome {
	case lookupWork:
		m.Work++
	case lookupReplay:
		m.ReplayedPrior++
	case lookupConflict:
		m.Conflicts++
	}
}

func (m *Metrics) recordOutcome(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case status >= 200 && status < 300:
		m.Success++
	case status >= 400 && status < 500:
		m.ClientErr++
	default:
		m.ServerErr++
	}
}

// Snapshot returns a copy of the current counters for export (e.g. over a
// /metrics endpoint, left to the HTTP surface to wire if desired).
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Work:          m.Work,
		ReplayedPrior: m.ReplayedPrior,
		Conflicts:     m.Conflicts,
		Success:       m.Success,
		ClientErr:     m.ClientErr,
		ServerErr:     m.ServerErr,
	}
}
