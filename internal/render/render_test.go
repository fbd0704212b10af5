package render_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/document"
	"github.com/jpl-au/markview/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup creates a document and pipeline with autosave off and the theme
// directory pointed at a temp dir.
func setup(t *testing.T) (*document.Document, *render.Pipeline) {
	t.Helper()
	off := false
	cfg := &config.Config{
		AutoSave: config.AutoSave{Documents: &off, Backups: &off},
		Preview:  config.Preview{ThemesDir: filepath.Join(t.TempDir(), "themes")},
	}
	doc := document.New(cfg)
	return doc, render.New(doc, cfg)
}

// writeTheme creates a theme directory with the given template.
func writeTheme(t *testing.T, themesDir, name, template string) {
	t.Helper()
	dir := filepath.Join(themesDir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.html"), []byte(template), 0644))
}

func TestRender_HeadingAndParagraph(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("# Hello\n\nWorld")

	out := p.Render(render.Options{})

	assert.Contains(t, out, ">Hello</h1>")
	assert.Contains(t, out, "<p>World</p>")
}

func TestRender_MarkupOverride(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("document text")

	out := p.Render(render.Options{Markup: "## Override"})

	assert.Contains(t, out, ">Override</h2>")
	assert.NotContains(t, out, "document text")
}

func TestRender_NormalisesLineEndings(t *testing.T) {
	_, p := setup(t)

	out := p.Render(render.Options{Markup: "line1\r\n\r\nline2\rline3"})

	assert.Contains(t, out, "<p>line1</p>")
	assert.NotContains(t, out, "\r")
}

func TestRender_HookChainOrder(t *testing.T) {
	_, p := setup(t)

	p.RegisterHook(render.StageBeforeRender, func(s string) (string, error) {
		return s + " one", nil
	})
	p.RegisterHook(render.StageBeforeRender, func(s string) (string, error) {
		return s + " two", nil
	})
	p.SetHookSubscriber(render.StageBeforeRender, func(s string) (string, error) {
		return s + " three", nil
	})

	out := p.Render(render.Options{Markup: "order:"})

	assert.Contains(t, out, "order: one two three")
}

func TestRender_FailingHookYieldsErrorHTML(t *testing.T) {
	_, p := setup(t)

	p.RegisterHook(render.StageAfterFragment, func(string) (string, error) {
		return "", errors.New("fragment hook exploded")
	})

	out := p.Render(render.Options{Markup: "# Fine markup"})

	assert.Contains(t, out, "markview-render-error")
	assert.Contains(t, out, "fragment hook exploded")
	assert.NotContains(t, out, "Fine markup")
}

func TestRender_PanickingHookYieldsErrorHTML(t *testing.T) {
	_, p := setup(t)

	p.RegisterHook(render.StageBeforeRender, func(string) (string, error) {
		panic("boom")
	})

	out := p.Render(render.Options{Markup: "x"})
	assert.Contains(t, out, "markview-render-error")
	assert.Contains(t, out, "boom")
}

func TestRender_ErrorHTMLEscapesMessage(t *testing.T) {
	_, p := setup(t)

	p.RegisterHook(render.StageBeforeRender, func(string) (string, error) {
		return "", errors.New("<script>alert(1)</script>")
	})

	out := p.Render(render.Options{Markup: "x"})
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRender_ScriptPolicy(t *testing.T) {
	markup := "before\n\n<script>alert(1)</script>\n\nafter"

	t.Run("scripts stripped by default", func(t *testing.T) {
		_, p := setup(t)
		out := p.Render(render.Options{Markup: markup})
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "<p>before</p>")
	})

	t.Run("document request allows scripts", func(t *testing.T) {
		doc, p := setup(t)
		doc.SetAllowScripts(true)
		out := p.Render(render.Options{Markup: markup})
		assert.Contains(t, out, "<script>alert(1)</script>")
	})

	t.Run("override is restored after parse", func(t *testing.T) {
		doc, p := setup(t)
		doc.SetAllowScripts(true)
		_ = p.Render(render.Options{Markup: markup})

		doc.SetAllowScripts(false)
		out := p.Render(render.Options{Markup: markup})
		assert.NotContains(t, out, "<script>")
	})
}

func TestRender_RootLinkRewrite(t *testing.T) {
	doc, p := setup(t)
	markup := "[a](~/docs/a.md) [b](/img/b.png) [c](//cdn.example/c.js) [d](https://example.com)"

	t.Run("no preview root", func(t *testing.T) {
		out := p.Render(render.Options{Markup: markup})
		assert.Contains(t, out, `href="~/docs/a.md"`)
	})

	t.Run("with preview root", func(t *testing.T) {
		doc.SetPreviewRoot("https://site.example/root/")
		out := p.Render(render.Options{Markup: markup})

		assert.Contains(t, out, `href="https://site.example/root/docs/a.md"`)
		assert.Contains(t, out, `href="https://site.example/root/img/b.png"`)
		assert.Contains(t, out, `href="//cdn.example/c.js"`, "protocol-relative untouched")
		assert.Contains(t, out, `href="https://example.com"`, "absolute untouched")
	})
}

func TestRender_PositionMarkers(t *testing.T) {
	_, p := setup(t)

	out := p.Render(render.Options{
		Markup:             "# First\n\npara\n\n## Third",
		UsePositionMarkers: true,
	})

	assert.Contains(t, out, `data-line="1"`)
	assert.Contains(t, out, `data-line="3"`)
	assert.Contains(t, out, `data-line="5"`)
}

func TestRender_Banner(t *testing.T) {
	off := false

	t.Run("past threshold unlicensed", func(t *testing.T) {
		cfg := &config.Config{
			AutoSave: config.AutoSave{Documents: &off, Backups: &off},
			License:  config.License{UsageCount: 100},
		}
		doc := document.New(cfg)
		p := render.New(doc, cfg)

		out := p.Render(render.Options{Markup: "x"})
		assert.Contains(t, out, "markview-banner")
	})

	t.Run("suppressed", func(t *testing.T) {
		cfg := &config.Config{
			AutoSave: config.AutoSave{Documents: &off, Backups: &off},
			License:  config.License{UsageCount: 100},
		}
		p := render.New(document.New(cfg), cfg)

		out := p.Render(render.Options{Markup: "x", SuppressBanner: true})
		assert.NotContains(t, out, "markview-banner")
	})

	t.Run("licensed", func(t *testing.T) {
		cfg := &config.Config{
			AutoSave: config.AutoSave{Documents: &off, Backups: &off},
			License:  config.License{Key: "PAID", UsageCount: 100},
		}
		p := render.New(document.New(cfg), cfg)

		out := p.Render(render.Options{Markup: "x"})
		assert.NotContains(t, out, "markview-banner")
	})

	t.Run("below threshold", func(t *testing.T) {
		_, p := setup(t)
		out := p.Render(render.Options{Markup: "x"})
		assert.NotContains(t, out, "markview-banner")
	})
}

func TestRenderToFile_ThemeMerge(t *testing.T) {
	doc, p := setup(t)
	themesDir := filepath.Join(t.TempDir(), "themes")
	p.SetThemesDir(themesDir)
	writeTheme(t, themesDir, "custom",
		"<html><head><base href=\"x\">{$extraHeaders}</head><body>{$markdownHtml}<!--{$markdown}--></body></html>")

	doc.SetText("# Title")
	p.SetExtraHeaders("<meta name=\"generator\" content=\"markview\">")

	out := filepath.Join(t.TempDir(), "out.html")
	page, ok := p.RenderToFile(render.FileOptions{Path: out, Theme: "custom"})

	require.True(t, ok)
	assert.Contains(t, page, ">Title</h1>")
	assert.Contains(t, page, "<!--# Title-->")
	assert.Contains(t, page, `content="markview"`)
	assert.Contains(t, page, "<base")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, page, string(raw))
}

func TestRenderToFile_StripBaseTag(t *testing.T) {
	doc, p := setup(t)
	themesDir := filepath.Join(t.TempDir(), "themes")
	p.SetThemesDir(themesDir)
	writeTheme(t, themesDir, "based", `<head><base href="file:///x/"></head><body>{$markdownHtml}</body>`)

	doc.SetText("text")
	page := p.RenderWithTemplate(render.FileOptions{
		Options:      render.Options{},
		Theme:        "based",
		StripBaseTag: true,
	})

	assert.NotContains(t, strings.ToLower(page), "<base")
}

func TestRenderToFile_MissingThemeFallsBack(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("# Still renders")

	// Theme "Ghost" does not exist on disk and neither does the default;
	// the inline template is the final fallback.
	page, ok := p.RenderToFile(render.FileOptions{
		Theme:     "Ghost",
		SkipWrite: true,
	})

	require.True(t, ok)
	assert.NotEmpty(t, page)
	assert.Contains(t, page, ">Still renders</h1>")
	assert.Contains(t, page, "<!DOCTYPE html>")
}

func TestRenderToFile_AfterDocumentHook(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("body")

	p.RegisterHook(render.StageAfterDocument, func(s string) (string, error) {
		return strings.Replace(s, "</body>", "<footer>injected</footer></body>", 1), nil
	})

	page := p.RenderWithTemplate(render.FileOptions{})
	assert.Contains(t, page, "<footer>injected</footer>")
}

func TestRenderToFile_FailingDocumentHookYieldsErrorHTML(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("body")

	p.RegisterHook(render.StageAfterDocument, func(string) (string, error) {
		return "", errors.New("document hook exploded")
	})

	page := p.RenderWithTemplate(render.FileOptions{})
	assert.Contains(t, page, "markview-render-error")
	assert.Contains(t, page, "document hook exploded")
}

func TestRenderWithTemplate_DoesNotWrite(t *testing.T) {
	doc, p := setup(t)
	doc.SetText("x")

	out := filepath.Join(t.TempDir(), "never.html")
	page := p.RenderWithTemplate(render.FileOptions{Path: out})

	assert.NotEmpty(t, page)
	assert.NoFileExists(t, out)
}

func TestRender_GFMTable(t *testing.T) {
	_, p := setup(t)

	out := p.Render(render.Options{Markup: "| a | b |\n|---|---|\n| 1 | 2 |"})
	assert.Contains(t, out, "<table>")
}

func TestRender_FencedCodeHighlighting(t *testing.T) {
	_, p := setup(t)

	out := p.Render(render.Options{Markup: "```go\nfunc main() {}\n```"})
	// chroma emits pre blocks with inline styles for the chosen style.
	assert.Contains(t, out, "<pre")
	assert.Contains(t, out, "main")
}
