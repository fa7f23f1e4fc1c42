package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "decisionos",
	Short: "Decision journal with model-assisted advice",
	Long:  "DecisionOS records decisions, drafts structured advice from decision templates, and summarizes what your decisions say about you.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(templatesCmd)
}
