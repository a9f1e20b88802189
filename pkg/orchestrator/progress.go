// pkg/orchestrator/progress.go
package orchestrator

import "time"

// ProgressSink receives per-unit progress notifications during a run. The
// sink is called from worker goroutines and must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressEvent describes one unit lifecycle transition within a run.
type ProgressEvent struct {
	RunID     string
	Unit      string
	Status    string // started, skipped, or a terminal record status
	Timestamp time.Time
}
