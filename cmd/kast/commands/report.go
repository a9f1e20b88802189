// cmd/kast/commands/report.go
package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kastsec/kast/cmd/kast/internal/format"
	"github.com/kastsec/kast/pkg/report"
)

func newReportCommand() *cobra.Command {
	var (
		outputDir    string
		outputFormat string
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a consolidated summary from persisted scan results",
		RunE: func(cmd *cobra.Command, args []string) error {
			render := func(agg *report.Aggregate) error {
				switch outputFormat {
				case "json":
					data, err := agg.JSON()
					if err != nil {
						return err
					}
					cmd.Println(string(data))
				case "yaml":
					data, err := agg.YAML()
					if err != nil {
						return err
					}
					cmd.Println(string(data))
				case "table":
					cmd.Println(format.Summary(agg.Target(), agg))
				default:
					return fmt.Errorf("unsupported report format: %s (use table, json or yaml)", outputFormat)
				}
				return nil
			}

			agg, err := report.Load(outputDir)
			if err != nil {
				return err
			}
			if len(agg.Records) == 0 {
				log.Warn().Str("dir", outputDir).Msg("No persisted records found")
			}
			if err := render(agg); err != nil {
				return err
			}

			if watch {
				logger := log.With().Str("command", "report").Logger()
				return report.Watch(cmd.Context(), outputDir, logger, func(agg *report.Aggregate) {
					if err := render(agg); err != nil {
						logger.Warn().Err(err).Msg("Failed to render aggregate")
					}
				})
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./kast_output", "Directory holding persisted scan results")
	cmd.Flags().StringVar(&outputFormat, "format", "table", "Report format: table, json or yaml")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-render whenever result files change")

	return cmd
}
