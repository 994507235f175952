package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapfact",
		Short: "Photo fact generator with LLM-powered image analysis",
		Long: `Snapfact turns photos into interesting facts using vision-capable LLMs.

A captured or uploaded photo is moderated, described by a multimodal model,
and saved as a discovery shown in a most-recent-first list.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
