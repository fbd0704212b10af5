package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleMarkdown = `# Release Notes

## Added

- Terminal preview with syntax highlighting
- UTF-16 round-trip support

## Fixed

Autosave no longer races manual saves.
`

func TestMarkdownToHTML(t *testing.T) {
	t.Run("default output path", func(t *testing.T) {
		env := newTestEnv(t)
		env.write("notes.md", sampleMarkdown)

		out := env.run("markdowntohtml", "-i", "notes.md")
		env.contains(out, "notes.html")

		page := env.read("notes.html")
		env.contains(page, ">Release Notes</h1>")
		env.contains(page, ">Added</h2>")
		env.contains(page, "<li>Terminal preview with syntax highlighting</li>")
	})

	t.Run("explicit output path", func(t *testing.T) {
		env := newTestEnv(t)
		env.write("notes.md", sampleMarkdown)

		env.run("markdowntohtml", "-i", "notes.md", "-o", "out/page.html")
		env.contains(env.read("out/page.html"), ">Release Notes</h1>")
	})

	t.Run("document mode produces full page", func(t *testing.T) {
		env := newTestEnv(t)
		env.write("notes.md", sampleMarkdown)

		env.run("markdowntohtml", "-i", "notes.md")
		page := env.read("notes.html")
		env.contains(page, "<!DOCTYPE html>")
		env.contains(page, "</html>")
	})

	t.Run("fragment mode omits page structure", func(t *testing.T) {
		env := newTestEnv(t)
		env.write("notes.md", sampleMarkdown)

		env.run("markdowntohtml", "-i", "notes.md", "--rendermode", "fragment")
		frag := env.read("notes.html")
		env.contains(frag, ">Release Notes</h1>")
		if strings.Contains(frag, "<!DOCTYPE html>") {
			t.Error("fragment output contains document structure")
		}
	})

	t.Run("invalid rendermode rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.write("notes.md", sampleMarkdown)

		out, err := env.runErr("markdowntohtml", "-i", "notes.md", "--rendermode", "bogus")
		if err == nil {
			t.Error("invalid rendermode should fail")
		}
		env.contains(out, "invalid rendermode")
	})

	t.Run("missing input fails", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.runErr("markdowntohtml", "-i", "absent.md")
		if err == nil {
			t.Error("missing input should fail")
		}
	})

	t.Run("input flag required", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.runErr("markdowntohtml")
		if err == nil {
			t.Error("missing -i should fail")
		}
	})
}

func TestMarkdownToHTML_Theme(t *testing.T) {
	env := newTestEnv(t)
	env.write("notes.md", "# Themed")

	themes := filepath.Join(env.home, "themes")
	if err := os.MkdirAll(filepath.Join(themes, "minimal"), 0755); err != nil {
		t.Fatal(err)
	}
	template := "<html><body class=\"minimal-theme\">{$markdownHtml}</body></html>"
	if err := os.WriteFile(filepath.Join(themes, "minimal", "theme.html"), []byte(template), 0644); err != nil {
		t.Fatal(err)
	}

	env.run("config", "preview.themes_dir", themes)
	env.run("markdowntohtml", "-i", "notes.md", "--theme", "minimal")

	page := env.read("notes.html")
	env.contains(page, `class="minimal-theme"`)
	env.contains(page, ">Themed</h1>")
}

func TestMarkdownToHTML_UTF16Input(t *testing.T) {
	env := newTestEnv(t)

	// UTF-16 LE with BOM: "# Hi"
	raw := []byte{0xFF, 0xFE, '#', 0, ' ', 0, 'H', 0, 'i', 0}
	if err := os.WriteFile(filepath.Join(env.dir, "wide.md"), raw, 0644); err != nil {
		t.Fatal(err)
	}

	env.run("markdowntohtml", "-i", "wide.md")
	env.contains(env.read("wide.html"), ">Hi</h1>")
}
