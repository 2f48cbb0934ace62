// Package cmd wires the schema-planning pipeline behind a Cobra CLI
// (spec §1.4). It is a thin wrapper: no core logic lives here, only
// argument parsing, config resolution, and calls into the internal
// packages.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pgschemaplan/pgschemaplan/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "pgschemaplan",
	Short: "pgschemaplan plans declarative PostgreSQL schema migrations.",
	Long:  `pgschemaplan compares a desired schema against a live database and prints the SQL needed to reconcile them.`,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the CLI, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logging.Logger {
	l := logrus.New()
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return logging.NewLogrus(l)
}
