// cmd/kast/commands/scan.go
package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kastsec/kast/cmd/kast/internal/format"
	"github.com/kastsec/kast/pkg/config"
	"github.com/kastsec/kast/pkg/orchestrator"
	"github.com/kastsec/kast/pkg/registry"
	"github.com/kastsec/kast/pkg/report"
)

func newScanCommand(managerRef func() *config.Manager) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Run all registered scan units against a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			manager := managerRef()
			cfg := manager.Config()
			logger := log.With().Str("command", "scan").Logger()

			descriptors := registry.Discover()
			if len(descriptors) == 0 {
				return fmt.Errorf("no scan units registered")
			}
			logger.Info().Int("units", len(descriptors)).Msg("Discovered scan units")

			orch := orchestrator.New(target, cfg.Scan.OutputDir, descriptors,
				orchestrator.WithLogger(logger),
				orchestrator.WithOptionsFunc(manager.UnitOptions),
				orchestrator.WithProgressSink(&progressLogger{}),
			)

			if dryRun {
				printDryRun(cmd, orch, target, cfg, manager)
				return nil
			}

			records, err := orch.RunScans(cmd.Context(), cfg.Scan.Concurrency)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			agg := report.FromRecords(cfg.Scan.OutputDir, records)
			cmd.Println(format.Summary(target, agg))

			if agg.Failed() {
				counts := agg.Counts()
				return fmt.Errorf("%d of %d units did not complete", counts.Failed+counts.Timeout, counts.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output-dir", "o", "", "Directory to store scan results")
	cmd.Flags().Int("concurrency", 0, "Maximum concurrent unit executions")
	cmd.Flags().Int("timeout", 0, "Per-unit timeout in seconds")
	cmd.Flags().Int("niceness", 0, "Scheduling priority hint for tool processes")
	cmd.Flags().Bool("verbose", false, "Run tools in verbose mode")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be executed without running scans")

	return cmd
}

// printDryRun shows the resolved submission order and the exact commands,
// without touching dependencies or launching anything.
func printDryRun(cmd *cobra.Command, orch *orchestrator.Orchestrator, target string, cfg config.Config, manager *config.Manager) {
	cmd.Printf("Dry run for %s (output dir %s, concurrency %d)\n", target, cfg.Scan.OutputDir, cfg.Scan.Concurrency)
	for i, desc := range orch.ResolveOrder() {
		u := desc.Factory()
		if u == nil {
			continue
		}
		argv := u.BuildCommand(target, cfg.Scan.OutputDir, manager.UnitOptions(desc.Name))
		cmd.Printf("%2d. [%s] %s: %s\n", i+1, desc.ScanType, desc.Name, strings.Join(argv, " "))
	}
}

// progressLogger forwards orchestrator progress events to the global logger.
type progressLogger struct{}

func (p *progressLogger) OnEvent(ev orchestrator.ProgressEvent) {
	log.Info().
		Str("run_id", ev.RunID).
		Str("unit", ev.Unit).
		Str("status", ev.Status).
		Msg("Scan progress")
}
