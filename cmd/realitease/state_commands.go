package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"realitease/internal/workflow"
	"realitease/internal/worksheets"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or clear stage checkpoints",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List checkpoint scopes with their processed key counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDependencies(runContext(cmd), func(deps *workflow.Dependencies) error {
				summaries, err := deps.State.Checkpoints(runContext(cmd))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No checkpoints")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{s.Stage, s.Scope, strconv.Itoa(s.Keys), formatTime(s.LastAt)})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					Headers: []string{"Stage", "Scope", "Keys", "Last Update"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				}))
				return nil
			})
		},
	})

	var scope string
	clearCmd := &cobra.Command{
		Use:   "clear [stage]",
		Short: "Clear checkpoints so the next run starts from the beginning",
		Long:  "Clear the checkpoints of one stage (optionally one --scope), or of every stage when no stage is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stageName := ""
			if len(args) == 1 {
				stageName = args[0]
			}
			if stageName == "" && scope != "" {
				return fmt.Errorf("--scope requires a stage")
			}
			return ctx.withDependencies(runContext(cmd), func(deps *workflow.Dependencies) error {
				removed, err := deps.State.ClearCheckpoints(runContext(cmd), stageName, scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d checkpoint keys\n", removed)
				return nil
			})
		},
	}
	clearCmd.Flags().StringVar(&scope, "scope", "", "Only clear this checkpoint scope")
	cmd.AddCommand(clearCmd)

	return cmd
}

func newLeaseCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect or release row-range leases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List row-range leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDependencies(runContext(cmd), func(deps *workflow.Dependencies) error {
				leases, err := deps.State.Leases(runContext(cmd), "")
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(leases) == 0 {
					fmt.Fprintln(out, "No leases")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(leases))
				for _, l := range leases {
					state := "active"
					if l.Expired(now) {
						state = "expired"
					}
					rows = append(rows, []string{
						l.Worksheet,
						fmt.Sprintf("%d-%d", l.Start, l.End),
						l.Owner,
						formatTime(l.ExpiresAt),
						state,
					})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					Headers: []string{"Worksheet", "Rows", "Owner", "Expires", "State"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				}))
				return nil
			})
		},
	})

	var owner string
	releaseCmd := &cobra.Command{
		Use:   "release [worksheet]",
		Short: "Force-release leases left behind by a crashed process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			worksheet := worksheets.ViableCast
			if len(args) == 1 {
				worksheet = args[0]
			}
			return ctx.withDependencies(runContext(cmd), func(deps *workflow.Dependencies) error {
				removed, err := deps.State.ReleaseLeases(runContext(cmd), worksheet, owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Released %d leases on %s\n", removed, worksheet)
				return nil
			})
		},
	}
	releaseCmd.Flags().StringVar(&owner, "owner", "", "Only release leases held by this owner")
	cmd.AddCommand(releaseCmd)

	return cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
