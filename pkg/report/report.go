// pkg/report/report.go
// Package report aggregates persisted unit records from a scan output
// directory and renders consolidated summaries.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/kastsec/kast/pkg/unit"
)

// Aggregate is the consolidated view of one scan run, rebuilt from the
// per-unit _results.json files. Records are name-sorted for a canonical
// presentation order (the orchestrator's in-memory list is completion order).
type Aggregate struct {
	OutputDir string
	Records   []unit.Record
}

// Load reads every persisted record under outputDir. A malformed record file
// is skipped with a diagnostic rather than aborting the aggregate.
func Load(outputDir string) (*Aggregate, error) {
	paths, err := filepath.Glob(filepath.Join(outputDir, "*_results.json"))
	if err != nil {
		return nil, fmt.Errorf("scan output dir %s: %w", outputDir, err)
	}

	agg := &Aggregate{OutputDir: outputDir}
	for _, path := range paths {
		rec, err := unit.LoadRecord(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable record")
			continue
		}
		agg.Records = append(agg.Records, rec)
	}
	sort.Slice(agg.Records, func(i, j int) bool {
		return agg.Records[i].ToolName < agg.Records[j].ToolName
	})
	return agg, nil
}

// FromRecords builds an aggregate from an in-memory record list.
func FromRecords(outputDir string, records []unit.Record) *Aggregate {
	agg := &Aggregate{OutputDir: outputDir, Records: append([]unit.Record(nil), records...)}
	sort.Slice(agg.Records, func(i, j int) bool {
		return agg.Records[i].ToolName < agg.Records[j].ToolName
	})
	return agg
}

// Counts tallies records per terminal status.
type Counts struct {
	Completed int
	Failed    int
	Timeout   int
	NotRun    int
	Total     int
}

// Counts returns the per-status tally for the aggregate.
func (a *Aggregate) Counts() Counts {
	var c Counts
	for _, rec := range a.Records {
		c.Total++
		switch rec.Status {
		case unit.StatusCompleted:
			c.Completed++
		case unit.StatusFailed:
			c.Failed++
		case unit.StatusTimeout:
			c.Timeout++
		default:
			c.NotRun++
		}
	}
	return c
}

// Failed reports whether any unit ended in FAILED or TIMEOUT; the CLI derives
// the process exit code from it.
func (a *Aggregate) Failed() bool {
	c := a.Counts()
	return c.Failed > 0 || c.Timeout > 0
}

// JSON renders the aggregate's records with the fixed record field names.
func (a *Aggregate) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(a.Records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal aggregate: %w", err)
	}
	return data, nil
}

// YAML renders the aggregate's records as YAML, preserving the JSON field
// names by round-tripping through the JSON representation.
func (a *Aggregate) YAML() ([]byte, error) {
	jsonData, err := json.Marshal(a.Records)
	if err != nil {
		return nil, fmt.Errorf("marshal aggregate: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(jsonData, &generic); err != nil {
		return nil, fmt.Errorf("rebind aggregate: %w", err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("marshal aggregate yaml: %w", err)
	}
	return data, nil
}

// Target returns the scanned target recorded in the aggregate, or "" when
// the directory holds no records.
func (a *Aggregate) Target() string {
	for _, rec := range a.Records {
		if rec.Target != "" {
			return rec.Target
		}
	}
	return ""
}

// IsRecordFile reports whether a path looks like a persisted unit record.
func IsRecordFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_results.json")
}
