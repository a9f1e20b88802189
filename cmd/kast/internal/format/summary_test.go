package format

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/kastsec/kast/pkg/registry"
	"github.com/kastsec/kast/pkg/report"
	"github.com/kastsec/kast/pkg/unit"
)

func init() {
	color.NoColor = true
}

func TestSummary(t *testing.T) {
	duration := 1.5
	agg := report.FromRecords("", []unit.Record{
		{
			ToolName:        "wafw00f",
			Status:          unit.StatusCompleted,
			Findings:        unit.Findings{"detected_waf": "CloudFront"},
			DurationSeconds: &duration,
		},
		{
			ToolName: "slowtool",
			Status:   unit.StatusTimeout,
			Findings: unit.Findings{},
		},
	})

	out := Summary("example.com", agg)
	assert.Contains(t, out, "Scan Results for example.com")
	assert.Contains(t, out, "wafw00f")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "-", "missing duration renders as a dash")
	assert.Contains(t, out, "2 units: 1 completed, 0 failed, 1 timed out, 0 not run")
}

func TestSummaryWithoutTarget(t *testing.T) {
	out := Summary("", report.FromRecords("", nil))
	assert.Contains(t, out, "Scan Results")
	assert.Contains(t, out, "0 units")
}

func TestUnitList(t *testing.T) {
	out := UnitList([]registry.Descriptor{
		{Name: "wafw00f", ScanType: unit.PassiveScan, OutputMethod: unit.CaptureFile, Description: "WAF detection"},
	})
	assert.Contains(t, out, "wafw00f")
	assert.Contains(t, out, "passive")
	assert.Contains(t, out, "file")
	assert.Contains(t, out, "WAF detection")
}
