package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Personal ticket tracker and daily standup notes",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the tracker CLI; with no subcommand it serves the API.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}
