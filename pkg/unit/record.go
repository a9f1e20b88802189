// pkg/unit/record.go
package unit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is the standardized result of one execution attempt. Exactly one
// Record exists per completed or failed attempt; it is persisted to
// <output_dir>/<name>_results.json and also returned in memory for
// aggregation. Field names are fixed for compatibility with consumers of the
// persisted files.
type Record struct {
	ToolName        string   `json:"tool_name"`
	ToolDescription string   `json:"tool_description"`
	ToolVersion     string   `json:"tool_version"`
	ScanType        ScanType `json:"scan_type"`
	Target          string   `json:"target"`
	TimestampStart  *string  `json:"timestamp_start"`
	TimestampEnd    *string  `json:"timestamp_end"`
	DurationSeconds *float64 `json:"duration_seconds"`
	Status          Status   `json:"status"`
	RawOutput       *string  `json:"raw_output"`
	Findings        Findings `json:"findings"`
	Error           string   `json:"error,omitempty"`
	// Reason is set only on records for units skipped by their readiness
	// predicate; such records are not persisted.
	Reason string `json:"reason,omitempty"`
}

// NewRecord folds a unit's identity and final execution state into a Record.
func NewRecord(u Unit, target string, st State, findings Findings, errMsg string) Record {
	rec := Record{
		ToolName:        u.Name(),
		ToolDescription: u.Description(),
		ToolVersion:     VersionOf(u),
		ScanType:        u.ScanType(),
		Target:          target,
		Status:          st.Status,
		Findings:        findings,
		Error:           errMsg,
	}
	if rec.Findings == nil {
		rec.Findings = Findings{}
	}
	if !st.StartedAt.IsZero() {
		rec.TimestampStart = isoTimestamp(st.StartedAt)
	}
	if !st.EndedAt.IsZero() {
		rec.TimestampEnd = isoTimestamp(st.EndedAt)
	}
	if d, ok := st.Duration(); ok {
		secs := d.Seconds()
		rec.DurationSeconds = &secs
	}
	if st.rawSet {
		raw := string(st.RawOutput)
		rec.RawOutput = &raw
	}
	return rec
}

// RecordPath returns the per-unit result file path inside outputDir.
func RecordPath(outputDir, name string) string {
	return filepath.Join(outputDir, name+"_results.json")
}

// RawOutputPath returns the name-scoped file a FILE-method tool writes to.
func RawOutputPath(outputDir, name string) string {
	return filepath.Join(outputDir, name+"_raw_output.json")
}

// Persist writes the record to its result file, replacing any prior record
// for the same unit and output directory.
func (r Record) Persist(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", r.ToolName, err)
	}
	path := RecordPath(outputDir, r.ToolName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	return nil
}

// LoadRecord reads a persisted record back from disk.
func LoadRecord(path string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("read record %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record %s: %w", path, err)
	}
	return rec, nil
}

func isoTimestamp(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
