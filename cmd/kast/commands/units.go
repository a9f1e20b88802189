// cmd/kast/commands/units.go
package commands

import (
	"github.com/spf13/cobra"

	"github.com/kastsec/kast/cmd/kast/internal/format"
	"github.com/kastsec/kast/pkg/registry"
)

func newUnitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Inspect registered scan units",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all registered scan units",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(format.UnitList(registry.Discover()))
			return nil
		},
	})

	return cmd
}
