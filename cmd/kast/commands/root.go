// cmd/kast/commands/root.go
// Package commands wires the kast CLI: global flags, configuration loading
// and the scan/units/report command tree.
package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kastsec/kast/pkg/config"
	"github.com/kastsec/kast/pkg/logging"

	// Adapters register themselves with the unit registry at startup.
	_ "github.com/kastsec/kast/pkg/units/wafw00f"
)

const cliExecutable = "kast"

// NewCommand constructs the top-level kast CLI command.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
		manager        *config.Manager
	)

	cmd := &cobra.Command{
		Use:           cliExecutable,
		Short:         "KAST automates external security scanners against a single target",
		Long:          `KAST coordinates pluggable scan units (external security tools), runs them concurrently with per-unit timeouts, and normalizes their output into one result record per unit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureGlobal(verbosityLevel(verbosityCount).String())

			manager = config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	managerRef := func() *config.Manager { return manager }

	cmd.AddCommand(newScanCommand(managerRef))
	cmd.AddCommand(newUnitsCommand())
	cmd.AddCommand(newReportCommand())

	return cmd
}

func verbosityLevel(count int) zerolog.Level {
	switch count {
	case 0:
		return zerolog.ErrorLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
