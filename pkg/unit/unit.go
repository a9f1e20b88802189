// pkg/unit/unit.go
// Package unit defines the execution-unit contract every scan adapter
// implements, plus the lifecycle runner that executes one adapter against a
// target and folds the outcome into a Record.
package unit

import (
	"context"
	"time"

	"github.com/spf13/cast"
)

// ScanType classifies how intrusive a unit is. Passive units are submitted
// before active ones.
type ScanType string

const (
	PassiveScan ScanType = "passive" // observes the target without probing it
	ActiveScan  ScanType = "active"  // actively probes the target
)

// OutputMethod tells the runner how to retrieve a unit's raw output after the
// external process exits.
type OutputMethod string

const (
	CaptureStdout OutputMethod = "stdout" // read the captured standard output
	CaptureFile   OutputMethod = "file"   // read a name-scoped file the tool wrote
)

// Status is the execution state of a unit instance. Transitions only move
// forward; see State.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTimeout    Status = "timeout"
)

// OutputFilePlaceholder is the token adapters may embed in a built command;
// the runner substitutes it with the allocated output file path before launch.
const OutputFilePlaceholder = "{output_file}"

// Findings is the tool-specific structured output of one unit execution.
type Findings map[string]interface{}

// Unit is the minimal contract every scan adapter must satisfy. Optional
// capabilities (version reporting, resume, readiness) are separate interfaces
// so adapters only implement what they support.
type Unit interface {
	// Name returns the unique registry key for this unit.
	Name() string
	// Description returns a human-readable summary of what the tool does.
	Description() string
	// ScanType reports whether the unit observes or probes the target.
	ScanType() ScanType
	// OutputMethod reports how the underlying tool delivers its output.
	OutputMethod() OutputMethod
	// CheckDependencies verifies the underlying external tool is invocable.
	// It must have no side effects beyond the probe itself.
	CheckDependencies(ctx context.Context) bool
	// BuildCommand returns the argv to launch, as a pure function of target,
	// output directory and options. FILE-method units may include
	// OutputFilePlaceholder for the allocated output path.
	BuildCommand(target, outputDir string, opts Options) []string
	// ParseOutput turns raw tool output into findings. Malformed or empty
	// input yields an empty mapping and an error, never a panic.
	ParseOutput(raw []byte) (Findings, error)
}

// Versioner is implemented by units that can report the underlying tool
// version. Units without it report "unknown".
type Versioner interface {
	Version() string
}

// Resumer is the optional resume capability. The runner reports "Resume not
// supported" for units that do not implement it.
type Resumer interface {
	CanResume() bool
	Resume(ctx context.Context, target, outputDir string, opts Options) Record
}

// ReadinessChecker is the optional per-unit readiness predicate, evaluated by
// the orchestrator before the lifecycle starts. The returned reason is
// surfaced on the skip record when ok is false.
type ReadinessChecker interface {
	RunIf(ctx context.Context, target string) (ok bool, reason string)
}

// VersionOf resolves a unit's tool version, defaulting to "unknown".
func VersionOf(u Unit) string {
	if v, ok := u.(Versioner); ok {
		if s := v.Version(); s != "" {
			return s
		}
	}
	return "unknown"
}

// Options is the flat per-unit option map supplied by the configuration
// layer. The runner only reads from it.
type Options map[string]interface{}

const (
	defaultTimeoutSeconds = 300
	defaultNiceness       = 10
)

// Timeout returns the wall-clock budget for one execution, default 300s.
func (o Options) Timeout() time.Duration {
	if o != nil {
		if raw, ok := o["timeout"]; ok {
			if secs := cast.ToInt(raw); secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultTimeoutSeconds * time.Second
}

// Niceness returns the scheduling priority hint, default 10.
func (o Options) Niceness() int {
	if o != nil {
		if raw, ok := o["niceness"]; ok {
			return cast.ToInt(raw)
		}
	}
	return defaultNiceness
}

// Verbose reports whether the unit should run its tool in verbose mode.
func (o Options) Verbose() bool {
	if o == nil {
		return false
	}
	return cast.ToBool(o["verbose"])
}

// PingGate reports whether the orchestrator should ICMP-probe the target
// before running this unit.
func (o Options) PingGate() bool {
	if o == nil {
		return false
	}
	return cast.ToBool(o["ping_gate"])
}
