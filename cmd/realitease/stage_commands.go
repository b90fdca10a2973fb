package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"realitease/internal/castinfo"
	"realitease/internal/enrich"
	"realitease/internal/episodes"
	"realitease/internal/realitease"
	"realitease/internal/showinfo"
	"realitease/internal/stage"
	"realitease/internal/updateinfo"
	"realitease/internal/viablecast"
	"realitease/internal/workflow"
)

func newStageCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSimpleStageCommand(ctx, "shows", showinfo.Name, "Build the ShowInfo registry from the configured lists"),
		newCastCommand(ctx),
		newSimpleStageCommand(ctx, "enrich", enrich.Name, "Fill CastInfo person details from TMDb"),
		newSimpleStageCommand(ctx, "update", updateinfo.Name, "Aggregate per-person totals into UpdateInfo"),
		newSimpleStageCommand(ctx, "viable", viablecast.Name, "Select eligible cast pairs into ViableCast"),
		newExtractCommand(ctx),
		newSimpleStageCommand(ctx, "aggregate", realitease.Name, "Build RealiteaseInfo from ViableCast"),
	}
}

func newSimpleStageCommand(ctx *commandContext, use, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, []string{name}, workflow.Overrides{}, false)
		},
	}
}

func newCastCommand(ctx *commandContext) *cobra.Command {
	var overrides workflow.Overrides
	cmd := &cobra.Command{
		Use:   "cast",
		Short: "Collect cast members of every ShowInfo show into CastInfo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, []string{castinfo.Name}, overrides, false)
		},
	}
	cmd.Flags().BoolVar(&overrides.CastAppendOnly, "append-only", false, "Add new cast pairs without updating existing rows")
	cmd.Flags().IntVar(&overrides.CastStartRow, "start-row", 0, "Skip ShowInfo rows numbered below this row")
	return cmd
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		rows      string
		direction string
		overrides workflow.Overrides
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Fill ViableCast episode counts and seasons",
		Long: "Fill ViableCast episode counts and seasons over a leased row range.\n\n" +
			"Several processes may run at once on disjoint --rows ranges; an\n" +
			"overlapping range is refused while its lease is held.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyExtractFlags(&overrides, rows, direction); err != nil {
				return err
			}
			return runStages(cmd, ctx, []string{episodes.Name}, overrides, false)
		},
	}
	cmd.Flags().StringVar(&rows, "rows", "", "Row range to process, e.g. 2-500, 100- or 7 (default all rows)")
	cmd.Flags().StringVar(&direction, "direction", string(episodes.TopDown), "Processing order within the range: top-down or bottom-up")
	cmd.Flags().IntVar(&overrides.Workers, "workers", 0, "Concurrent leased workers (default extract.workers)")
	cmd.Flags().StringVar(&overrides.Strategy, "strategy", "", "Extraction strategy: api, scrape or auto (default extract.strategy)")
	cmd.Flags().StringVar(&overrides.Owner, "owner", "", "Lease owner prefix (default a random ID)")
	return cmd
}

func applyExtractFlags(overrides *workflow.Overrides, rows, direction string) error {
	r, err := episodes.ParseRange(rows)
	if err != nil {
		return err
	}
	d, err := episodes.ParseDirection(direction)
	if err != nil {
		return err
	}
	overrides.Rows = r
	overrides.Direction = d
	return nil
}

// runStages builds and runs names, then prints the summary table.
func runStages(cmd *cobra.Command, ctx *commandContext, names []string, overrides workflow.Overrides, preflight bool) error {
	return ctx.withDependencies(runContext(cmd), func(deps *workflow.Dependencies) error {
		handlers, err := deps.BuildAll(names, overrides)
		if err != nil {
			return err
		}
		runner := &workflow.Runner{
			Logger:   deps.Logger,
			Notifier: deps.Notifier,
			LockPath: deps.LockPath,
		}
		if preflight {
			runner.Preflight = workflow.Preflight(deps.Config, deps.Logger)
		}
		report, runErr := runner.Run(runContext(cmd), handlers)
		if len(report.Summaries) > 0 {
			printSummaries(cmd.OutOrStdout(), report)
		}
		return runErr
	})
}

func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printSummaries(out io.Writer, report workflow.Report) {
	spec := tableSpec{
		Headers: []string{"Stage", "Processed", "Appended", "Updated", "Skipped", "Failed", "Resumed", "Duration"},
		Aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	}
	for _, s := range report.Summaries {
		spec.Rows = append(spec.Rows, summaryRow(s.Stage, s))
	}
	if len(report.Summaries) > 1 {
		total := report.Total()
		total.Duration = report.Duration
		spec.Footer = summaryRow("total", total)
	}
	fmt.Fprintln(out, renderTable(spec))
	for _, s := range report.Summaries {
		for _, note := range s.Notes {
			fmt.Fprintf(out, "%s: %s\n", s.Stage, note)
		}
	}
	if report.FailedStage != "" {
		fmt.Fprintf(out, "Run stopped at %s\n", report.FailedStage)
	}
}

func summaryRow(label string, s stage.Summary) []string {
	return []string{
		label,
		strconv.Itoa(s.Processed),
		strconv.Itoa(s.Appended),
		strconv.Itoa(s.Updated),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Resumed),
		s.Duration.Round(time.Millisecond).String(),
	}
}
