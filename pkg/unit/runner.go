// pkg/unit/runner.go
package unit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Runner drives one unit instance through its lifecycle exactly once:
// dependency check, process launch with timeout, output retrieval, parse and
// record formatting. All faults are contained here and converted into record
// fields; Run never panics past its own boundary for adapter misbehavior it
// knows about (parse panics are recovered, launch errors are folded in).
type Runner struct {
	unit      Unit
	target    string
	outputDir string
	opts      Options
	logger    zerolog.Logger

	ran atomic.Bool
}

// NewRunner binds a unit to one target/output-directory/options combination.
// The logger is scoped to the run rather than the process.
func NewRunner(u Unit, target, outputDir string, opts Options, logger zerolog.Logger) *Runner {
	return &Runner{
		unit:      u,
		target:    target,
		outputDir: outputDir,
		opts:      opts,
		logger:    logger.With().Str("unit", u.Name()).Logger(),
	}
}

// Run executes the full lifecycle and always yields exactly one Record. The
// instance is single-use; a second call reports a FAILED record without
// touching the external tool.
func (r *Runner) Run(ctx context.Context) Record {
	if !r.ran.CompareAndSwap(false, true) {
		rec := NewRecord(r.unit, r.target, NewState().Fail(time.Now()), nil, ErrAlreadyExecuted.Error())
		return rec
	}

	st := NewState()

	if !r.unit.CheckDependencies(ctx) {
		r.logger.Error().Msg("Dependencies not met")
		st = st.Fail(time.Now())
		return r.finish(st, nil, ErrDependencyMissing.Error())
	}

	st = st.Start(time.Now())

	argv := r.unit.BuildCommand(r.target, r.outputDir, r.opts)
	if len(argv) == 0 {
		st = st.Fail(time.Now())
		return r.finish(st, nil, ErrLaunchFailure.Error()+": empty command")
	}

	outputFile := ""
	if r.unit.OutputMethod() == CaptureFile {
		outputFile = RawOutputPath(r.outputDir, r.unit.Name())
		argv = substitutePlaceholder(argv, outputFile)
		if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
			st = st.Fail(time.Now())
			return r.finish(st, nil, fmt.Sprintf("%v: %v", ErrLaunchFailure, err))
		}
	}

	argv = withNiceness(argv, r.opts.Niceness())
	r.logger.Info().Str("command", strings.Join(argv, " ")).Msg("Executing")

	stdout, stderr, runErr, timedOut := r.launch(ctx, argv)
	switch {
	case timedOut:
		r.logger.Error().Dur("timeout", r.opts.Timeout()).Msg("Unit timed out")
		st = st.Expire(time.Now())
		return r.finish(st, Findings{}, fmt.Sprintf("%v after %s", ErrTimeout, r.opts.Timeout()))
	case runErr != nil && !isExitError(runErr):
		r.logger.Error().Err(runErr).Msg("Failed to launch process")
		st = st.Fail(time.Now())
		return r.finish(st, Findings{}, fmt.Sprintf("%v: %v", ErrLaunchFailure, runErr))
	case runErr != nil:
		// Tools may exit non-zero on "findings present" semantics; the exit
		// code is advisory, not a status determinant.
		r.logger.Warn().Err(runErr).Str("stderr", stderr).Msg("Process returned non-zero exit code")
	}

	raw, err := r.retrieveOutput(stdout, outputFile)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to retrieve output")
		st = st.Fail(time.Now())
		return r.finish(st, Findings{}, err.Error())
	}
	st = st.WithRawOutput(raw)

	findings := r.parse(raw)
	st = st.Complete(time.Now())
	return r.finish(st, findings, "")
}

// Resume delegates to the unit's Resumer capability when present; otherwise
// it reports a "Resume not supported" record without failing the caller.
func (r *Runner) Resume(ctx context.Context) Record {
	if res, ok := r.unit.(Resumer); ok && res.CanResume() {
		return res.Resume(ctx, r.target, r.outputDir, r.opts)
	}
	r.logger.Warn().Msg("Resume not supported")
	return r.finish(NewState(), nil, ErrResumeUnsupported.Error())
}

// launch runs the external process under the configured wall-clock budget.
func (r *Runner) launch(ctx context.Context, argv []string) (stdout, stderr string, err error, timedOut bool) {
	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return outBuf.String(), errBuf.String(), err, true
	}
	return outBuf.String(), errBuf.String(), err, false
}

// retrieveOutput applies the unit's output method. A FILE-method tool that
// wrote nothing yields an empty raw output, not an error.
func (r *Runner) retrieveOutput(stdout, outputFile string) ([]byte, error) {
	if r.unit.OutputMethod() == CaptureStdout {
		return []byte(stdout), nil
	}
	data, err := os.ReadFile(outputFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warn().Str("file", outputFile).Msg("Output file was not written")
			return []byte{}, nil
		}
		return nil, fmt.Errorf("read output file %s: %w", outputFile, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// parse invokes the adapter's parser with panic containment. A parse fault
// degrades findings to an empty mapping but leaves the status untouched.
func (r *Runner) parse(raw []byte) (findings Findings) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("Parser panicked")
			findings = Findings{}
		}
	}()

	findings, err := r.unit.ParseOutput(raw)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to parse output")
		return Findings{}
	}
	if findings == nil {
		findings = Findings{}
	}
	return findings
}

// finish formats the record and persists it, converging all terminal paths.
func (r *Runner) finish(st State, findings Findings, errMsg string) Record {
	rec := NewRecord(r.unit, r.target, st, findings, errMsg)
	if err := rec.Persist(r.outputDir); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist record")
	}
	return rec
}

func substitutePlaceholder(argv []string, outputFile string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = strings.ReplaceAll(arg, OutputFilePlaceholder, outputFile)
	}
	return out
}

// withNiceness prepends a nice invocation when the hint is positive and the
// binary is available; otherwise the command runs at normal priority.
func withNiceness(argv []string, niceness int) []string {
	if niceness <= 0 {
		return argv
	}
	nicePath, err := exec.LookPath("nice")
	if err != nil {
		return argv
	}
	return append([]string{nicePath, "-n", strconv.Itoa(niceness)}, argv...)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
