package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"realitease/internal/preflight"
	"realitease/internal/sheetaccess"
	"realitease/internal/workflow"
	"realitease/internal/worksheets"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks, worksheet sizes, checkpoints and leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := runContext(cmd)
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := newStatusReport(cmd.OutOrStdout())

			report.section("Configuration")
			report.line("Sheet backend", statusInfo, sheetaccess.Describe(cfg))
			report.line("State database", statusInfo, cfg.StateDBPath())
			report.line("Extract strategy", statusInfo, cfg.Extract.Strategy)
			report.line("Enrich enabled", statusInfo, yesNo(cfg.Enrich.Enabled))
			report.line("TVDB lookups", statusInfo, yesNo(strings.TrimSpace(cfg.TVDB.APIKey) != ""))
			report.line("Wikidata lookups", statusInfo, yesNo(cfg.Wikidata.Enabled))
			report.line("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""))

			report.section("Preflight")
			for _, r := range preflight.RunAll(runCtx, cfg) {
				report.check(r.Name, r.Passed, r.Detail)
			}

			err = ctx.withDependencies(runCtx, func(deps *workflow.Dependencies) error {
				handlers, err := deps.BuildAll(workflow.Order, workflow.Overrides{})
				if err != nil {
					return err
				}
				report.section("Stages")
				for _, h := range workflow.Health(runCtx, handlers) {
					detail := h.Detail
					if h.Ready && detail == "" {
						detail = "ready"
					}
					report.check(h.Name, h.Ready, detail)
				}

				report.section("Worksheets")
				for _, layout := range worksheets.All() {
					table, err := deps.Sheets.Read(runCtx, layout.Name)
					if err != nil {
						report.line(layout.Name, statusWarn, "not created")
						continue
					}
					report.line(layout.Name, statusInfo, strconv.Itoa(len(table.Rows))+" rows")
				}

				checkpoints, err := deps.State.Checkpoints(runCtx)
				if err != nil {
					return err
				}
				leases, err := deps.State.Leases(runCtx, "")
				if err != nil {
					return err
				}
				report.section("State")
				report.count("Open checkpoints", len(checkpoints))
				report.count("Active leases", len(leases))
				return nil
			})

			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return err
		},
	}
}
