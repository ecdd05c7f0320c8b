package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Lookup API for tables, enums and allow-listed configuration",
	Long: `Lookup serves reference data to front ends: rows of registered
tables as {id, name, ...} records, enum definitions with translated
labels, and allow-listed configuration values.

Quick start:
  lookup validate   # Check configuration and definitions
  lookup serve      # Start the HTTP server

Ad hoc queries:
  lookup query request.json --format table
  lookup models
  lookup enums --format yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lookup.yaml", "config file path")
}
