// cmd/kast/internal/format/summary.go
// Package format renders CLI tables and summaries for scan results.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/kastsec/kast/pkg/registry"
	"github.com/kastsec/kast/pkg/report"
	"github.com/kastsec/kast/pkg/unit"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// Summary renders the consolidated per-unit result table plus a status tally.
func Summary(target string, agg *report.Aggregate) string {
	var b strings.Builder

	title := "Scan Results"
	if target != "" {
		title = fmt.Sprintf("Scan Results for %s", target)
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%-16s %-12s %-10s %s\n", "UNIT", "STATUS", "FINDINGS", "DURATION")
	for _, rec := range agg.Records {
		fmt.Fprintf(&b, "%-16s %s %-10d %s\n",
			rec.ToolName,
			statusLabel(rec.Status),
			len(rec.Findings),
			durationLabel(rec.DurationSeconds),
		)
	}

	counts := agg.Counts()
	fmt.Fprintf(&b, "\n%d units: %d completed, %d failed, %d timed out, %d not run\n",
		counts.Total, counts.Completed, counts.Failed, counts.Timeout, counts.NotRun)

	return b.String()
}

// UnitList renders the registered unit inventory.
func UnitList(descriptors []registry.Descriptor) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Registered Units"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%-16s %-8s %-8s %s\n", "NAME", "TYPE", "OUTPUT", "DESCRIPTION")
	for _, desc := range descriptors {
		fmt.Fprintf(&b, "%-16s %-8s %-8s %s\n", desc.Name, desc.ScanType, desc.OutputMethod, desc.Description)
	}
	return b.String()
}

// statusLabel pads before colouring so ANSI escapes do not skew the column
// widths.
func statusLabel(status unit.Status) string {
	padded := fmt.Sprintf("%-12s", status)
	switch status {
	case unit.StatusCompleted:
		return color.GreenString(padded)
	case unit.StatusFailed:
		return color.RedString(padded)
	case unit.StatusTimeout:
		return color.YellowString(padded)
	default:
		return padded
	}
}

func durationLabel(secs *float64) string {
	if secs == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fs", *secs)
}
