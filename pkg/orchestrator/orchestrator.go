// pkg/orchestrator/orchestrator.go
// Package orchestrator dispatches discovered scan units against a single
// target on a bounded worker pool, enforcing submission order, readiness
// gating and fault containment, and aggregating one record per unit.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kastsec/kast/pkg/registry"
	"github.com/kastsec/kast/pkg/unit"
)

// DefaultConcurrency is the worker pool size when the caller does not ask
// for one.
const DefaultConcurrency = 3

const lockFileName = ".kast.lock"

// OptionsFunc resolves the flat option map for one unit by name.
type OptionsFunc func(unitName string) unit.Options

// Orchestrator owns one scan run: a target, an output directory and the set
// of unit descriptors to execute. Unit instances are created fresh per run
// and never shared across workers.
type Orchestrator struct {
	target      string
	outputDir   string
	descriptors []registry.Descriptor
	optionsFor  OptionsFunc
	logger      zerolog.Logger
	sink        ProgressSink
	probe       ReadinessProbe
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger injects the run-scoped logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithOptionsFunc injects the per-unit option resolver from the config layer.
func WithOptionsFunc(fn OptionsFunc) Option {
	return func(o *Orchestrator) { o.optionsFor = fn }
}

// WithProgressSink attaches a sink receiving per-unit progress events.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithReadinessProbe replaces the ICMP readiness probe, useful for tests.
func WithReadinessProbe(probe ReadinessProbe) Option {
	return func(o *Orchestrator) { o.probe = probe }
}

// New builds an orchestrator for one target and output directory.
func New(target, outputDir string, descriptors []registry.Descriptor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		target:      target,
		outputDir:   outputDir,
		descriptors: descriptors,
		optionsFor:  func(string) unit.Options { return nil },
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.probe == nil {
		o.probe = ICMPProbe(defaultProbeTimeout)
	}
	return o
}

// ResolveOrder returns the submission order: every passive unit before every
// active one, stable within each class so repeated calls on the same input
// agree. There is no further dependency graph in this version.
func (o *Orchestrator) ResolveOrder() []registry.Descriptor {
	ordered := make([]registry.Descriptor, len(o.descriptors))
	copy(ordered, o.descriptors)
	sort.SliceStable(ordered, func(i, j int) bool {
		return classRank(ordered[i].ScanType) < classRank(ordered[j].ScanType)
	})
	return ordered
}

func classRank(t unit.ScanType) int {
	if t == unit.PassiveScan {
		return 0
	}
	return 1
}

// RunScans executes every descriptor and returns one record per unit, in
// completion order. It is a join-all: records for failed or timed-out units
// are returned alongside the rest, and no unit fault ever aborts siblings.
// The only error paths are pre-flight: output directory creation and the
// advisory lock protecting the directory from a concurrent scan.
func (o *Orchestrator) RunScans(ctx context.Context, maxConcurrency int) ([]unit.Record, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}

	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	dirLock := flock.New(filepath.Join(o.outputDir, lockFileName))
	locked, err := dirLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output dir %s is locked by another scan", o.outputDir)
	}
	defer func() {
		if err := dirLock.Unlock(); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to release output dir lock")
		}
	}()

	runID := uuid.NewString()
	logger := o.logger.With().Str("run_id", runID).Str("target", o.target).Logger()

	ordered := o.ResolveOrder()
	logger.Info().Int("units", len(ordered)).Int("concurrency", maxConcurrency).Msg("Starting scan run")

	jobs := make(chan registry.Descriptor, len(ordered))
	results := make(chan unit.Record, len(ordered))

	workers := maxConcurrency
	if workers > len(ordered) {
		workers = len(ordered)
	}
	for i := 0; i < workers; i++ {
		go func() {
			for desc := range jobs {
				results <- o.executeOne(ctx, runID, desc, logger)
			}
		}()
	}

	// Submission order carries the passive-before-active guarantee; workers
	// drain the queue freely, so it is not a hard barrier between classes.
	for _, desc := range ordered {
		jobs <- desc
	}
	close(jobs)

	records := make([]unit.Record, 0, len(ordered))
	for range ordered {
		records = append(records, <-results)
	}

	logger.Info().Int("records", len(records)).Msg("Scan run complete")
	return records, nil
}

// executeOne runs a single unit's lifecycle with orchestrator-level fault
// containment: anything escaping the unit's own containment becomes a FAILED
// record naming the unit, never a crash of the run.
func (o *Orchestrator) executeOne(ctx context.Context, runID string, desc registry.Descriptor, logger zerolog.Logger) (rec unit.Record) {
	defer func() {
		if fault := recover(); fault != nil {
			logger.Error().Str("unit", desc.Name).Interface("panic", fault).Msg("Unit escaped containment")
			rec = o.faultRecord(desc, fmt.Sprintf("orchestration fault: %v", fault))
			o.emit(runID, desc.Name, "failed")
		}
	}()

	u := desc.Factory()
	if u == nil {
		return o.faultRecord(desc, "orchestration fault: factory returned nil unit")
	}
	opts := o.optionsFor(desc.Name)

	if ok, reason := o.ready(ctx, u, opts); !ok {
		logger.Info().Str("unit", desc.Name).Str("reason", reason).Msg("Unit did not meet run conditions")
		o.emit(runID, desc.Name, "skipped")
		return o.skipRecord(desc, reason)
	}

	o.emit(runID, desc.Name, "started")
	runner := unit.NewRunner(u, o.target, o.outputDir, opts, logger)
	rec = runner.Run(ctx)
	o.emit(runID, desc.Name, string(rec.Status))
	return rec
}

// ready evaluates the unit's readiness predicate. A unit-supplied RunIf wins;
// otherwise the ICMP gate applies when the unit's options ask for it; the
// default is always run. Dependency checks and process launch are never
// touched for a unit that is not ready.
func (o *Orchestrator) ready(ctx context.Context, u unit.Unit, opts unit.Options) (bool, string) {
	if rc, ok := u.(unit.ReadinessChecker); ok {
		return rc.RunIf(ctx, o.target)
	}
	if opts.PingGate() && o.probe != nil {
		return o.probe(ctx, o.target)
	}
	return true, ""
}

// skipRecord is the non-error "Not Run" outcome: the unit never left
// NOT_STARTED and the record carries the reason. Skip records are returned
// for aggregation but not persisted.
func (o *Orchestrator) skipRecord(desc registry.Descriptor, reason string) unit.Record {
	return unit.Record{
		ToolName:        desc.Name,
		ToolDescription: desc.Description,
		ScanType:        desc.ScanType,
		Target:          o.target,
		Status:          unit.StatusNotStarted,
		Findings:        unit.Findings{},
		Reason:          "Run conditions not met: " + reason,
	}
}

// faultRecord is the terminal outcome for faults escaping the unit's own
// containment. Unlike skips it is a failed attempt, so it is persisted
// alongside the runner's records.
func (o *Orchestrator) faultRecord(desc registry.Descriptor, errMsg string) unit.Record {
	rec := unit.Record{
		ToolName:        desc.Name,
		ToolDescription: desc.Description,
		ScanType:        desc.ScanType,
		Target:          o.target,
		Status:          unit.StatusFailed,
		Findings:        unit.Findings{},
		Error:           errMsg,
	}
	if err := rec.Persist(o.outputDir); err != nil {
		o.logger.Error().Err(err).Str("unit", desc.Name).Msg("Failed to persist record")
	}
	return rec
}

func (o *Orchestrator) emit(runID, unitName, status string) {
	if o.sink == nil {
		return
	}
	o.sink.OnEvent(ProgressEvent{
		RunID:     runID,
		Unit:      unitName,
		Status:    status,
		Timestamp: time.Now(),
	})
}
