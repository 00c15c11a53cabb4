// Package metrics keeps in-process counters for a calculator session.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds session counters. The zero value is not ready; use New.
type Metrics struct {
	// Dispatch
	Commands        atomic.Int64
	UnknownCommands atomic.Int64
	InvalidInputs   atomic.Int64

	// Arithmetic
	Calculations atomic.Int64
	DomainErrors atomic.Int64

	// Ledger
	Undos     atomic.Int64
	Redos     atomic.Int64
	Evictions atomic.Int64

	// Persistence
	Saves      atomic.Int64
	SaveErrors atomic.Int64
	Loads      atomic.Int64
	LoadErrors atomic.Int64

	// Timing (last calculation duration in µs)
	LastCalcDurationUs atomic.Int64

	startTime time.Time
}

// New creates counters for a session starting now.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordCommand records one dispatched line.
func (m *Metrics) RecordCommand() {
	m.Commands.Add(1)
}

// RecordCalculation records an arithmetic attempt.
func (m *Metrics) RecordCalculation(success bool, d time.Duration) {
	if success {
		m.Calculations.Add(1)
	} else {
		m.DomainErrors.Add(1)
	}
	m.LastCalcDurationUs.Store(d.Microseconds())
}

// RecordEvictions records records dropped by the history size bound.
func (m *Metrics) RecordEvictions(n int) {
	if n > 0 {
		m.Evictions.Add(int64(n))
	}
}

// RecordSave records a history save attempt.
func (m *Metrics) RecordSave(success bool) {
	m.Saves.Add(1)
	if !success {
		m.SaveErrors.Add(1)
	}
}

// RecordLoad records a history load attempt.
func (m *Metrics) RecordLoad(success bool) {
	m.Loads.Add(1)
	if !success {
		m.LoadErrors.Add(1)
	}
}

// Uptime returns the time since New.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime             time.Duration
	Commands           int64
	UnknownCommands    int64
	InvalidInputs      int64
	Calculations       int64
	DomainErrors       int64
	Undos              int64
	Redos              int64
	Evictions          int64
	Saves              int64
	SaveErrors         int64
	Loads              int64
	LoadErrors         int64
	LastCalcDurationUs int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Uptime:             m.Uptime(),
		Commands:           m.Commands.Load(),
		UnknownCommands:    m.UnknownCommands.Load(),
		InvalidInputs:      m.InvalidInputs.Load(),
		Calculations:       m.Calculations.Load(),
		DomainErrors:       m.DomainErrors.Load(),
		Undos:              m.Undos.Load(),
		Redos:              m.Redos.Load(),
		Evictions:          m.Evictions.Load(),
		Saves:              m.Saves.Load(),
		SaveErrors:         m.SaveErrors.Load(),
		Loads:              m.Loads.Load(),
		LoadErrors:         m.LoadErrors.Load(),
		LastCalcDurationUs: m.LastCalcDurationUs.Load(),
	}
}
