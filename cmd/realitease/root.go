package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "realitease",
		Short: "Reality-TV cast metadata pipeline",
		Long: "realitease collects reality-TV show and cast metadata from TMDb and IMDb\n" +
			"into a set of worksheets, one pipeline stage at a time.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddGroup(
		&cobra.Group{ID: "stages", Title: "Pipeline stages:"},
		&cobra.Group{ID: "state", Title: "State maintenance:"},
	)
	for _, cmd := range newStageCommands(ctx) {
		cmd.GroupID = "stages"
		rootCmd.AddCommand(cmd)
	}
	run := newRunCommand(ctx)
	run.GroupID = "stages"
	rootCmd.AddCommand(run)

	for _, cmd := range []*cobra.Command{newCheckpointCommand(ctx), newLeaseCommand(ctx)} {
		cmd.GroupID = "state"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
