package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cohe",
		Short:         "cohe: switch Claude Code between Z.AI and MiniMax accounts",
		Long:          "cohe manages provider accounts for Anthropic-compatible endpoints, rotates between them by usage, and keeps Claude Code session settings in sync.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRotateCmd(app),
		newAutoCmd(app),
		newAlertCmd(app),
		newUsageCmd(app),
		newHistoryCmd(app),
		newProfileCmd(app),
		newMCPCmd(app),
		newDashboardCmd(app),
		newTestCmd(app),
		newHooksCmd(app),
		newClaudeCmd(app),
	)

	return rootCmd
}
