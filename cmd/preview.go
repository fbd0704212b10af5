/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// preview.go implements the "markview preview" command for reading a
// markdown document in the terminal.
//
// Design: terminal output gets glamour markdown rendering; pipe/redirect
// gets raw markdown. Loading goes through the document layer so encrypted
// and non-UTF-8 files preview the same as plain ones.

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/document"
	"github.com/jpl-au/markview/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newPreviewCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "preview <file>",
		Short: "Preview a markdown file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	c.Flags().Bool("raw", false, "Output raw markdown without rendering")
	c.Flags().String("style", "dark", "Glamour style: dark, light, notty")
	return c
}

func runPreview(c *cobra.Command, args []string) error {
	raw, _ := c.Flags().GetBool("raw")
	style, _ := c.Flags().GetString("style")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	cred, err := Credential()
	if err != nil {
		return err
	}

	doc := document.New(cfg)
	doc.SetAutoSaveMode(document.AutoSaveNone)
	log.SetDocument(args[0])

	if !loadDocument(doc, args[0], cred) {
		return fmt.Errorf("loading %q: %w", args[0], doc.LastError())
	}

	// Render with glamour if TTY and not --raw
	if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, renderErr := glamour.Render(doc.Text(), style)
		if renderErr == nil {
			fmt.Fprint(Out(), rendered)
			return nil
		}
	}

	fmt.Fprintln(Out(), doc.Text())
	return nil
}

func init() {
	rootCmd.AddCommand(newPreviewCmd())
}
