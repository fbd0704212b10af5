/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// markdowntohtml.go implements the "markview markdowntohtml" command.
//
// Separated from root.go to isolate the file-to-file rendering workflow:
// load (decrypting if needed), render through the pipeline, write the
// themed page or bare fragment.
//
// Design: the document's own persistence layer does the reading so
// encoding detection and encrypted input come for free. Render failures
// still produce a page - the pipeline substitutes diagnostic HTML - so
// the only hard failures here are unreadable input and unwritable output.

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/document"
	"github.com/jpl-au/markview/internal/log"
	"github.com/jpl-au/markview/internal/render"
	"github.com/spf13/cobra"
)

// Render modes for markdowntohtml.
const (
	renderModeDocument = "document"
	renderModeFragment = "fragment"
)

func newMarkdownToHTMLCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "markdowntohtml",
		Short: "Render a markdown file to HTML",
		Long: `Render a markdown file to a themed HTML page.

  markview markdowntohtml -i notes.md
  markview markdowntohtml -i notes.md -o out.html --theme dark
  markview markdowntohtml -i secret.md -p -    # prompt for the password

Encrypted input is decrypted with the --password credential. The default
output path is the input path with an .html extension.`,
		RunE: runMarkdownToHTML,
	}
	c.Flags().StringP("input", "i", "", "Markdown file to render")
	c.Flags().StringP("output", "o", "", "Output HTML file (default: input with .html extension)")
	c.Flags().String("theme", "", "Theme name (default from config)")
	c.Flags().String("rendermode", renderModeDocument, "Render mode: document (themed page) or fragment (body HTML only)")
	c.Flags().Bool("open", false, "Open the result in the default browser")
	_ = c.MarkFlagRequired("input")
	return c
}

func runMarkdownToHTML(c *cobra.Command, _ []string) error {
	input, _ := c.Flags().GetString("input")
	output, _ := c.Flags().GetString("output")
	theme, _ := c.Flags().GetString("theme")
	mode, _ := c.Flags().GetString("rendermode")
	open, _ := c.Flags().GetBool("open")

	if mode != renderModeDocument && mode != renderModeFragment {
		return fmt.Errorf("invalid rendermode: %s (valid: %s, %s)", mode, renderModeDocument, renderModeFragment)
	}
	if output == "" {
		output = htmlOutputPath(input)
	}

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
	log.SetDocument(input)

	if !loadDocument(doc, input, cred) {
		return fmt.Errorf("loading %q: %w", input, doc.LastError())
	}

	p := render.New(doc, cfg)

	if mode == renderModeFragment {
		frag := p.Render(render.Options{})
		if !doc.WriteFile(output, frag) {
			return fmt.Errorf("writing %q: %w", output, doc.LastError())
		}
	} else {
		if _, ok := p.RenderToFile(render.FileOptions{Path: output, Theme: theme}); !ok {
			return fmt.Errorf("writing %q: %w", output, doc.LastError())
		}
	}

	fmt.Fprintln(Out(), output)

	if open {
		if err := openPath(output); err != nil {
			fmt.Fprintf(c.ErrOrStderr(), "warning: opening %s: %v\n", output, err)
		}
	}
	return nil
}

// htmlOutputPath derives the default output path from the input path.
func htmlOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
}

func init() {
	rootCmd.AddCommand(newMarkdownToHTMLCmd())
}
