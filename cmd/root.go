/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// root.go defines the root command and CLI execution entry point.
//
// Separated from flags.go to isolate cobra setup from flag definitions.
//
// Design: PersistentPreRunE validates global flag values (encoding names)
// before any command runs, so every subcommand can trust the parsed flags.
// The audit log is opened for the process lifetime and closed on exit;
// an unavailable log is a warning, never a failure.

package cmd

import (
	"fmt"
	"os"

	"github.com/jpl-au/markview/internal/log"
	"github.com/jpl-au/markview/internal/textenc"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "markview",
	Short: "Markdown document engine with themed HTML rendering",
	Long:  `A markdown document engine: themed HTML rendering, terminal preview, HTML-to-markdown conversion, encryption at rest, and encoding-preserving file handling.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if encodingName != "" {
			if _, err := textenc.Parse(encodingName); err != nil {
				return fmt.Errorf("invalid encoding: %w", err)
			}
		}
		return nil
	},
}

// Execute runs the root command and handles process lifecycle.
// Opens audit logging, executes the command, and exits 1 on error.
func Execute() {
	// Initialise audit logger (warn if it fails, but continue)
	if err := log.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}

	err := rootCmd.Execute()
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
