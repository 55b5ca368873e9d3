package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bugboard",
	Short: "BugBoard API server",
	Long: `BugBoard is a multi-user bug and task tracker.

Running it without a subcommand starts the API server.`,
	SilenceUsage: true,
	RunE:         serveCmd.RunE,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, keygenCmd, checkEnvCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
