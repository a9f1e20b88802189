package unit

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUnit is a scriptable unit backed by real external commands (echo, sh,
// sleep) so the runner's process handling is exercised end to end.
type fakeUnit struct {
	name        string
	scanType    ScanType
	method      OutputMethod
	deps        bool
	argv        []string
	parse       func([]byte) (Findings, error)
	buildCalled atomic.Bool
	parseCalled atomic.Bool
}

func (u *fakeUnit) Name() string               { return u.name }
func (u *fakeUnit) Description() string        { return "fake unit" }
func (u *fakeUnit) ScanType() ScanType         { return u.scanType }
func (u *fakeUnit) OutputMethod() OutputMethod { return u.method }

func (u *fakeUnit) CheckDependencies(_ context.Context) bool { return u.deps }

func (u *fakeUnit) BuildCommand(_, _ string, _ Options) []string {
	u.buildCalled.Store(true)
	return u.argv
}

func (u *fakeUnit) ParseOutput(raw []byte) (Findings, error) {
	u.parseCalled.Store(true)
	if u.parse != nil {
		return u.parse(raw)
	}
	return Findings{}, nil
}

func newFakeUnit(name string, argv ...string) *fakeUnit {
	return &fakeUnit{
		name:     name,
		scanType: PassiveScan,
		method:   CaptureStdout,
		deps:     true,
		argv:     argv,
	}
}

// noNice keeps the external command untouched so test assertions about argv
// semantics hold regardless of the host's nice binary.
var noNice = Options{"niceness": 0}

func runFake(t *testing.T, u *fakeUnit, opts Options) (Record, string) {
	t.Helper()
	dir := t.TempDir()
	runner := NewRunner(u, "example.com", dir, opts, zerolog.Nop())
	return runner.Run(context.Background()), dir
}

func TestRunYieldsExactlyOneRecord(t *testing.T) {
	u := newFakeUnit("echo-unit", "echo", "hello")
	rec, dir := runFake(t, u, noNice)

	assert.Equal(t, "echo-unit", rec.ToolName)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.RawOutput)
	assert.Equal(t, "hello\n", *rec.RawOutput)

	// The record is also persisted immediately.
	loaded, err := LoadRecord(RecordPath(dir, "echo-unit"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
}

func TestRunDependencyMissShortCircuits(t *testing.T) {
	u := newFakeUnit("missing-tool", "echo", "never")
	u.deps = false

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "Dependencies not met", rec.Error)
	assert.False(t, u.buildCalled.Load(), "BuildCommand must not run on dependency miss")
	assert.False(t, u.parseCalled.Load(), "ParseOutput must not run on dependency miss")
	assert.Nil(t, rec.TimestampStart)
}

func TestRunTimeout(t *testing.T) {
	u := newFakeUnit("sleepy", "sleep", "5")

	started := time.Now()
	rec, _ := runFake(t, u, Options{"niceness": 0, "timeout": 1})
	elapsed := time.Since(started)

	assert.Equal(t, StatusTimeout, rec.Status)
	assert.Equal(t, Findings{}, rec.Findings)
	assert.Contains(t, rec.Error, "timed out")
	assert.Less(t, elapsed, 3*time.Second, "timeout must fire near the budget, not the sleep length")
}

func TestRunLaunchFailure(t *testing.T) {
	u := newFakeUnit("broken", "/nonexistent/kast-test-binary")

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "launch failed")
	assert.Equal(t, Findings{}, rec.Findings)
}

func TestRunNonZeroExitIsAdvisory(t *testing.T) {
	u := newFakeUnit("grumpy", "sh", "-c", "echo findings; exit 3")
	u.parse = func(raw []byte) (Findings, error) {
		return Findings{"out": string(raw)}, nil
	}

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, Findings{"out": "findings\n"}, rec.Findings)
	assert.Empty(t, rec.Error)
}

func TestRunFileMethodMissingOutputFile(t *testing.T) {
	u := newFakeUnit("file-unit", "true")
	u.method = CaptureFile

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.RawOutput, "raw_output is the empty string, not null")
	assert.Equal(t, "", *rec.RawOutput)
}

func TestRunFileMethodReadsOutputFile(t *testing.T) {
	u := newFakeUnit("file-unit", "sh", "-c", "echo '{\"ok\":true}' > "+OutputFilePlaceholder)
	u.method = CaptureFile
	u.parse = func(raw []byte) (Findings, error) {
		return Findings{"raw": string(raw)}, nil
	}

	rec, dir := runFake(t, u, noNice)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.RawOutput)
	assert.Equal(t, "{\"ok\":true}\n", *rec.RawOutput)

	data, err := os.ReadFile(RawOutputPath(dir, "file-unit"))
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", string(data))
}

func TestRunParseErrorDegradesFindingsOnly(t *testing.T) {
	u := newFakeUnit("bad-parser", "echo", "not json")
	u.parse = func([]byte) (Findings, error) {
		return nil, ErrParseFailure
	}

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusCompleted, rec.Status, "parse failure degrades findings, not status")
	assert.Equal(t, Findings{}, rec.Findings)
}

func TestRunParsePanicContained(t *testing.T) {
	u := newFakeUnit("panicky", "echo", "boom")
	u.parse = func([]byte) (Findings, error) {
		panic("malformed input")
	}

	rec, _ := runFake(t, u, noNice)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, Findings{}, rec.Findings)
}

func TestRunnerIsSingleUse(t *testing.T) {
	u := newFakeUnit("once", "echo", "hi")
	runner := NewRunner(u, "example.com", t.TempDir(), noNice, zerolog.Nop())

	first := runner.Run(context.Background())
	assert.Equal(t, StatusCompleted, first.Status)

	second := runner.Run(context.Background())
	assert.Equal(t, StatusFailed, second.Status)
	assert.Contains(t, second.Error, "already executed")
}

func TestResumeUnsupportedByDefault(t *testing.T) {
	u := newFakeUnit("no-resume", "echo", "hi")
	runner := NewRunner(u, "example.com", t.TempDir(), noNice, zerolog.Nop())

	rec := runner.Resume(context.Background())
	assert.Equal(t, "Resume not supported", rec.Error)
	assert.Equal(t, StatusNotStarted, rec.Status)
}

func TestSubstitutePlaceholder(t *testing.T) {
	argv := substitutePlaceholder([]string{"tool", "-o", OutputFilePlaceholder, "t"}, "/tmp/out.json")
	assert.Equal(t, []string{"tool", "-o", "/tmp/out.json", "t"}, argv)
}

func TestWithNicenessZeroLeavesCommandAlone(t *testing.T) {
	argv := []string{"echo", "hi"}
	assert.Equal(t, argv, withNiceness(argv, 0))
}
