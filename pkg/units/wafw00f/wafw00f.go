// pkg/units/wafw00f/wafw00f.go
// Package wafw00f adapts the wafw00f WAF-detection tool to the execution-unit
// contract. It registers itself at startup; the CLI pulls it in with a blank
// import.
package wafw00f

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kastsec/kast/pkg/registry"
	"github.com/kastsec/kast/pkg/unit"
)

const (
	unitName = "wafw00f"

	// minVersion gates the dependency probe; older releases lack -f json.
	minVersion = "2.0.0"

	versionProbeTimeout = 10 * time.Second
)

func init() {
	registry.Register(unitName, func() unit.Unit { return &Unit{} })
}

// Unit detects web application firewalls in front of the target. It is a
// passive scan; wafw00f writes its JSON report to a file the runner reads
// back after exit.
type Unit struct{}

func (u *Unit) Name() string                    { return unitName }
func (u *Unit) Description() string             { return "Web Application Firewall Detection Tool" }
func (u *Unit) ScanType() unit.ScanType         { return unit.PassiveScan }
func (u *Unit) OutputMethod() unit.OutputMethod { return unit.CaptureFile }

// Version reports the installed wafw00f version, "unknown" when the probe
// fails. The probe gets its own short deadline so record formatting never
// hangs on a wedged binary.
func (u *Unit) Version() string {
	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()
	if v := unit.ProbeVersion(ctx, unitName, "--version"); v != "" {
		return v
	}
	return "unknown"
}

// CheckDependencies probes for an invocable wafw00f of a supported version.
func (u *Unit) CheckDependencies(ctx context.Context) bool {
	reported := unit.ProbeVersion(ctx, unitName, "--version")
	if reported == "" {
		return false
	}
	return unit.MeetsMinimum(reported, minVersion)
}

// BuildCommand asks wafw00f for JSON output into the allocated output file.
func (u *Unit) BuildCommand(target, outputDir string, opts unit.Options) []string {
	cmd := []string{unitName, "-f", "json", "-o", unit.OutputFilePlaceholder}
	if opts.Verbose() {
		cmd = append(cmd, "-v")
	}
	return append(cmd, target)
}

// report is the subset of wafw00f's JSON output we consume. Recent releases
// emit a single-element array, older ones a bare object.
type report struct {
	Firewall string `json:"firewall"`
	Detected bool   `json:"detected"`
}

// ParseOutput extracts the detected firewall from the raw JSON report.
func (u *Unit) ParseOutput(raw []byte) (unit.Findings, error) {
	if len(raw) == 0 {
		return unit.Findings{}, fmt.Errorf("empty wafw00f output")
	}

	var rep report
	if err := json.Unmarshal(raw, &rep); err != nil {
		var reps []report
		if arrErr := json.Unmarshal(raw, &reps); arrErr != nil || len(reps) == 0 {
			return unit.Findings{}, fmt.Errorf("parse wafw00f output: %w", err)
		}
		rep = reps[0]
	}

	detected := rep.Firewall
	if detected == "" || detected == "None" {
		detected = "No WAF detected"
	}
	return unit.Findings{"detected_waf": detected}, nil
}
