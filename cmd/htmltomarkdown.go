/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// htmltomarkdown.go implements the "markview htmltomarkdown" command,
// the reverse of markdowntohtml.
//
// Design: the output honours the global --encoding flag so converted
// markdown can round-trip into editors that expect a BOM or UTF-16.
// Conversion is lossy for constructs markdown cannot express.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpl-au/markview/internal/htmlconv"
	"github.com/jpl-au/markview/internal/log"
	"github.com/jpl-au/markview/internal/textenc"
	"github.com/spf13/cobra"
)

func newHTMLToMarkdownCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "htmltomarkdown",
		Short: "Convert an HTML file to markdown",
		Long: `Convert an HTML file to markdown.

  markview htmltomarkdown -i page.html
  markview htmltomarkdown -i page.html -o page.md --strict

The default output path is the input path with a .md extension.`,
		RunE: runHTMLToMarkdown,
	}
	c.Flags().StringP("input", "i", "", "HTML file to convert")
	c.Flags().StringP("output", "o", "", "Output markdown file (default: input with .md extension)")
	c.Flags().Bool("strict", false, "Emit plain CommonMark without GitHub-flavoured constructs")
	c.Flags().Bool("open", false, "Open the result in the default application")
	_ = c.MarkFlagRequired("input")
	return c
}

func runHTMLToMarkdown(c *cobra.Command, _ []string) error {
	input, _ := c.Flags().GetString("input")
	output, _ := c.Flags().GetString("output")
	strict, _ := c.Flags().GetBool("strict")
	open, _ := c.Flags().GetBool("open")

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".md"
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %q: %w", input, err)
	}
	enc := textenc.Detect(raw)
	html, err := enc.Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding %q: %w", input, err)
	}

	markdown, err := htmlconv.Convert(html, htmlconv.Options{Strict: strict})
	log.Event("cmd:htmltomarkdown", "convert").Path(input).Write(err)
	if err != nil {
		return err
	}

	if override, ok := EncodingOverride(); ok {
		enc = override
	}
	encoded, err := enc.Encode(markdown)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if err := os.WriteFile(output, encoded, 0644); err != nil {
		return fmt.Errorf("writing %q: %w", output, err)
	}

	fmt.Fprintln(Out(), output)

	if open {
		if err := openPath(output); err != nil {
			fmt.Fprintf(c.ErrOrStderr(), "warning: opening %s: %v\n", output, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newHTMLToMarkdownCmd())
}
