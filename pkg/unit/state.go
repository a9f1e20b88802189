// pkg/unit/state.go
package unit

import "time"

// State is an immutable snapshot of one execution attempt. Transition methods
// return a new value; a unit instance never mutates a State in place, which
// keeps the lifecycle safe to hand across goroutine boundaries.
type State struct {
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time
	RawOutput []byte
	rawSet    bool
}

// NewState returns the initial NOT_STARTED state.
func NewState() State {
	return State{Status: StatusNotStarted}
}

// Start marks the RUNNING entry and stamps the start time.
func (s State) Start(now time.Time) State {
	s.Status = StatusRunning
	s.StartedAt = now
	return s
}

// WithRawOutput attaches the retrieved raw output to the state.
func (s State) WithRawOutput(raw []byte) State {
	s.RawOutput = raw
	s.rawSet = true
	return s
}

// Complete marks the terminal COMPLETED entry.
func (s State) Complete(now time.Time) State {
	s.Status = StatusCompleted
	s.EndedAt = now
	return s
}

// Fail marks the terminal FAILED entry.
func (s State) Fail(now time.Time) State {
	s.Status = StatusFailed
	s.EndedAt = now
	return s
}

// Expire marks the terminal TIMEOUT entry.
func (s State) Expire(now time.Time) State {
	s.Status = StatusTimeout
	s.EndedAt = now
	return s
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// Duration returns the elapsed wall-clock time, or false when either
// timestamp is missing.
func (s State) Duration() (time.Duration, bool) {
	if s.StartedAt.IsZero() || s.EndedAt.IsZero() {
		return 0, false
	}
	return s.EndedAt.Sub(s.StartedAt), true
}
