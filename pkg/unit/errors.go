// pkg/unit/errors.go
package unit

import "errors"

// Error taxonomy for unit execution. The exact message text of
// ErrDependencyMissing and ErrResumeUnsupported is part of the persisted
// record format and must not change.
var (
	// ErrDependencyMissing indicates the underlying external tool is absent
	// or not invocable; the unit never launches.
	ErrDependencyMissing = errors.New("Dependencies not met")

	// ErrLaunchFailure indicates the external process could not be started.
	ErrLaunchFailure = errors.New("process launch failed")

	// ErrTimeout indicates the process exceeded its wall-clock budget.
	ErrTimeout = errors.New("execution timed out")

	// ErrParseFailure indicates raw output could not be parsed. It degrades
	// findings to an empty mapping but does not force a FAILED status.
	ErrParseFailure = errors.New("output parse failed")

	// ErrResumeUnsupported is reported by units without resume support.
	ErrResumeUnsupported = errors.New("Resume not supported")

	// ErrAlreadyExecuted indicates a second Run on a single-use instance.
	ErrAlreadyExecuted = errors.New("unit instance already executed")
)
