package cmd

import (
	"github.com/snapfactlabs/snapfact/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Caption quality evaluation tools",
		Long: `Evaluation tools for measuring how well the configured vision model
describes images, scored against reference captions from a dataset.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewCaptionCmd())

	return cmd
}
