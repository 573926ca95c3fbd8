// Package cmd provides CLI commands for the lms ledger server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lms",
	Short: "Double-entry ledger server",
	Long: `lms is a small double-entry accounting server backed by SQLite.

It supports:
- A balanced transaction engine with splits
- Tag-based bank reconciliation
- Balance sheet, profit & loss and running balance reports
- Split template suggestions from transaction history

Example:
  lms seed --demo
  lms serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	return cfgFile
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
