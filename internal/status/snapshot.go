// internal/status/snapshot.go
package status

import (
	"sync"
	"time"

	"github.com/tamzrod/thermostat/internal/report"
)

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	Cycles         uint16
	Persists       uint16
}

// Tracker folds report cycle outcomes into a Snapshot.
// It implements report.Observer.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	snap       Snapshot
	errorSince time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Observe records one cycle.
func (t *Tracker) Observe(res report.Result, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Cycles++
	if res.Persisted {
		t.snap.Persists++
	}

	t.snap.Health = Health(err)
	if err == nil {
		t.errorSince = time.Time{}
		return
	}

	t.snap.LastErrorCode = Code(err)
	if t.errorSince.IsZero() {
		t.errorSince = t.now()
	}
}

// Snapshot returns the current state. SecondsInError saturates, never wraps.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.snap
	s.SecondsInError = 0
	if !t.errorSince.IsZero() {
		secs := int64(t.now().Sub(t.errorSince) / time.Second)
		if secs > MaxSecondsInError {
			secs = MaxSecondsInError
		}
		s.SecondsInError = uint16(secs)
	}
	return s
}
