// Package render drives the multi-stage transformation from raw markup
// to themed HTML: newline normalisation, the before-render hook chain,
// parser resolution, root-relative link rewriting, script-policy
// sanitisation, the after-fragment hook chain, banner injection, theme
// merge, and the after-document hook chain.
//
// Rendering never fails outward. Parser errors, panics, and failing
// hooks are all converted into a fixed-structure diagnostic HTML
// fragment so the caller always has displayable content.
package render

import (
	"fmt"
	"html"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/document"
	"github.com/jpl-au/markview/internal/log"
)

// bannerThreshold is the render count past which the promotional banner
// appears on unlicensed installs.
const bannerThreshold = 50

// maxLoggedMarkup bounds how much failing markup lands in the log.
const maxLoggedMarkup = 255

// bannerHTML is the fixed promotional fragment.
const bannerHTML = `<div class="markview-banner"><p>Rendered with the free edition of <a href="https://markview.dev">markview</a>.</p></div>`

// Pipeline renders one document. Render calls are read-mostly against
// the document text and need not be mutually exclusive with each other;
// a render racing a text mutation sees the snapshot taken at call entry.
type Pipeline struct {
	doc *document.Document
	cfg *config.Config

	mu           sync.Mutex
	parserName   string
	themesDir    string
	allowScripts bool
	extraHeaders string
	uses         int

	chains [stageCount]*chain
}

// Options configures a fragment render.
type Options struct {
	// Markup overrides the document text when non-empty.
	Markup string
	// UsePositionMarkers annotates blocks with source lines.
	UsePositionMarkers bool
	// SuppressBanner skips banner injection regardless of license state.
	SuppressBanner bool
}

// FileOptions configures a full themed render.
type FileOptions struct {
	Options
	// Path is the output file; empty uses the document's render target.
	Path string
	// Theme overrides the configured default theme.
	Theme string
	// SkipWrite suppresses the file write.
	SkipWrite bool
	// StripBaseTag removes any <base> tag from the merged page.
	StripBaseTag bool
}

// New creates a pipeline for doc. Parser, theme directory, script policy
// and banner state seed from cfg; a nil cfg falls back to defaults.
func New(doc *document.Document, cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = &config.Config{}
	}
	p := &Pipeline{
		doc:          doc,
		cfg:          cfg,
		parserName:   cfg.Parser(),
		themesDir:    cfg.ThemesDir(),
		allowScripts: cfg.AllowScripts(),
		uses:         cfg.License.UsageCount,
	}
	for i := range p.chains {
		p.chains[i] = &chain{}
	}
	return p
}

// SetParser overrides the configured parser name.
func (p *Pipeline) SetParser(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parserName = name
}

// SetThemesDir overrides the theme directory.
func (p *Pipeline) SetThemesDir(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.themesDir = dir
}

// SetExtraHeaders sets the content substituted for {$extraHeaders}.
func (p *Pipeline) SetExtraHeaders(headers string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extraHeaders = headers
}

// Render transforms markup into an HTML fragment. Any failure is
// converted into diagnostic HTML; the offending markup is truncated and
// logged, never propagated.
func (p *Pipeline) Render(o Options) string {
	markup := o.Markup
	if markup == "" {
		markup = p.doc.Text()
	}

	out, err := p.renderFragment(markup, o)
	if err != nil {
		truncated := markup
		if len(truncated) > maxLoggedMarkup {
			truncated = truncated[:maxLoggedMarkup]
		}
		log.Event("render:html", "render").
			Path(p.doc.Filename()).
			Detail("markup", truncated).
			Write(err)
		return errorHTML(err)
	}
	return out
}

// renderFragment is the fallible core of Render.
func (p *Pipeline) renderFragment(markup string, o Options) (out string, err error) {
	// Parser implementations and hooks may panic; rendering must still
	// return displayable content.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()

	markup = normalizeNewlines(markup)

	markup, err = p.chains[StageBeforeRender].run(markup)
	if err != nil {
		return "", fmt.Errorf("before-render hook: %w", err)
	}

	markup = rewriteRootLinks(markup, p.doc.PreviewRoot())

	// The document's script request temporarily overrides the policy
	// for the duration of parsing; the restore must survive a panic.
	restore := p.overrideScripts(p.doc.AllowScripts())
	defer restore()

	parser := ResolveParser(p.parserName, ParserOptions{
		Emoji:           p.cfg.EmojiEnabled(),
		SyntaxStyle:     p.cfg.SyntaxStyle(),
		PositionMarkers: o.UsePositionMarkers,
	})

	frag, err := parser.Parse(markup)
	if err != nil {
		return "", err
	}

	if !p.scriptsAllowed() {
		frag = sanitizer.Sanitize(frag)
	}

	frag, err = p.chains[StageAfterFragment].run(frag)
	if err != nil {
		return "", fmt.Errorf("after-fragment hook: %w", err)
	}

	if !o.SuppressBanner && p.bannerDue() {
		frag += "\n" + bannerHTML
	}
	return frag, nil
}

// RenderToFile renders the fragment, merges it into a theme template,
// runs the after-document chain, and writes the page unless suppressed.
// Returns the page and false when the write failed (the page is then
// empty, mirroring a null result).
func (p *Pipeline) RenderToFile(o FileOptions) (string, bool) {
	markup := o.Markup
	if markup == "" {
		markup = p.doc.Text()
	}
	o.Markup = markup

	frag := p.Render(o.Options)

	p.mu.Lock()
	themesDir := p.themesDir
	extraHeaders := p.extraHeaders
	p.mu.Unlock()

	name := o.Theme
	if name == "" {
		name = p.cfg.DefaultTheme()
	}
	theme := LoadTheme(themesDir, name, p.cfg.DefaultTheme())

	page := theme.Merge(p.doc.Filename(), frag, markup, extraHeaders)
	if o.StripBaseTag {
		page = StripBaseTag(page)
	}

	merged, err := p.chains[StageAfterDocument].run(page)
	if err != nil {
		log.Event("render:document", "render").Path(p.doc.Filename()).Write(err)
		page = errorHTML(fmt.Errorf("after-document hook: %w", err))
	} else {
		page = merged
	}

	if !o.SkipWrite {
		path := o.Path
		if path == "" {
			path = p.doc.RenderTargetPath()
		}
		if !p.doc.WriteFile(path, page) {
			return "", false
		}
		log.Event("render:document", "write").Path(path).Detail("theme", theme.Name).Write(nil)
	}
	return page, true
}

// RenderWithTemplate returns the full merged document as a string
// without touching the filesystem.
func (p *Pipeline) RenderWithTemplate(o FileOptions) string {
	o.SkipWrite = true
	page, _ := p.RenderToFile(o)
	return page
}

// overrideScripts swaps the script policy for the parse duration and
// returns the restore function.
func (p *Pipeline) overrideScripts(allow bool) func() {
	p.mu.Lock()
	prior := p.allowScripts
	p.allowScripts = allow
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		p.allowScripts = prior
		p.mu.Unlock()
	}
}

func (p *Pipeline) scriptsAllowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allowScripts
}

// bannerDue counts this render and reports whether the promotional
// banner applies: past the usage threshold with no unlock key.
func (p *Pipeline) bannerDue() bool {
	p.mu.Lock()
	p.uses++
	uses := p.uses
	p.mu.Unlock()

	return uses > bannerThreshold && !p.cfg.Unlocked()
}

// sanitizer strips active content when the script policy is off, while
// keeping the classes and inline styles the highlighter emits.
var sanitizer = func() *bluemonday.Policy {
	pol := bluemonday.UGCPolicy()
	pol.AllowAttrs("class", "style").Globally()
	pol.AllowAttrs("data-line").Globally()
	return pol
}()

// normalizeNewlines canonicalises all line endings to "\n".
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// errorHTML is the fixed-structure fallback page embedding the escaped
// failure and stack trace.
func errorHTML(err error) string {
	return fmt.Sprintf(`<div class="markview-render-error">
<h3>Rendering failed</h3>
<p>%s</p>
<pre>%s</pre>
</div>`, html.EscapeString(err.Error()), html.EscapeString(string(debug.Stack())))
}
