package main

import (
	"strings"

	"github.com/spf13/cobra"

	"realitease/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		from, to      string
		rows          string
		direction     string
		skipPreflight bool
		overrides     workflow.Overrides
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline stages in order",
		Long: "Run the pipeline stages in order: " + strings.Join(workflow.Order, ", ") + ".\n\n" +
			"The run stops at the first stage error. The enrich stage runs only\n" +
			"when enrich.enabled is set or it is named by --from/--to.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			names, err := workflow.Select(from, to, cfg.Enrich.Enabled)
			if err != nil {
				return err
			}
			if err := applyExtractFlags(&overrides, rows, direction); err != nil {
				return err
			}
			return runStages(cmd, ctx, names, overrides, !skipPreflight)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First stage to run (default "+workflow.Order[0]+")")
	cmd.Flags().StringVar(&to, "to", "", "Last stage to run (default "+workflow.Order[len(workflow.Order)-1]+")")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and TMDb readiness checks")
	cmd.Flags().BoolVar(&overrides.CastAppendOnly, "append-only", false, "Cast stage: add new pairs without updating existing rows")
	cmd.Flags().StringVar(&rows, "rows", "", "Extract stage: row range to process")
	cmd.Flags().StringVar(&direction, "direction", "", "Extract stage: top-down or bottom-up")
	cmd.Flags().IntVar(&overrides.Workers, "workers", 0, "Extract stage: concurrent leased workers")
	cmd.Flags().StringVar(&overrides.Strategy, "strategy", "", "Extract stage: api, scrape or auto")
	return cmd
}
