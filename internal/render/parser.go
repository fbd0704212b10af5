// parser.go resolves the configured markdown parser. Parsers are
// registered by name; unknown names fall back to the default, so a stale
// config value degrades to working output instead of failing renders.

package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser converts markup text into an HTML fragment.
type Parser interface {
	Parse(markup string) (string, error)
}

// ParserOptions select per-render parser behaviour.
type ParserOptions struct {
	// Emoji enables :shortcode: substitution.
	Emoji bool
	// SyntaxStyle is the chroma style used for fenced code highlighting.
	SyntaxStyle string
	// PositionMarkers annotates top-level blocks with data-line
	// attributes for editor/preview scroll sync.
	PositionMarkers bool
}

// DefaultParserName is used when no parser is configured or the
// configured name is unknown.
const DefaultParserName = "goldmark"

type parserFactory func(ParserOptions) Parser

var parsers = map[string]parserFactory{
	"goldmark":   newGoldmarkParser,
	"commonmark": newCommonmarkParser,
}

// ParserNames returns the registered parser identifiers.
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for n := range parsers {
		names = append(names, n)
	}
	return names
}

// ResolveParser returns the parser registered under name, falling back
// to the default for unknown names.
func ResolveParser(name string, o ParserOptions) Parser {
	if f, ok := parsers[name]; ok {
		return f(o)
	}
	return parsers[DefaultParserName](o)
}

// goldmarkParser wraps a configured goldmark instance.
type goldmarkParser struct {
	md goldmark.Markdown
}

func (g *goldmarkParser) Parse(markup string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// newGoldmarkParser builds the default parser: GFM plus syntax
// highlighting, with optional emoji shortcodes. Raw HTML passes through;
// the pipeline sanitises downstream when the script policy is off.
func newGoldmarkParser(o ParserOptions) Parser {
	// Unknown style names degrade to the default rather than rendering
	// with chroma's bare fallback palette.
	style := o.SyntaxStyle
	if style == "" || styles.Get(style) == styles.Fallback {
		style = "github"
	}

	exts := []goldmark.Extender{
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle(style)),
	}
	if o.Emoji {
		exts = append(exts, emoji.Emoji)
	}

	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if o.PositionMarkers {
		parserOpts = append(parserOpts,
			parser.WithASTTransformers(util.Prioritized(&lineMarkers{}, 100)))
	}

	return &goldmarkParser{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// newCommonmarkParser builds a strict CommonMark parser with no
// extensions, for documents that must render identically elsewhere.
func newCommonmarkParser(o ParserOptions) Parser {
	var parserOpts []parser.Option
	if o.PositionMarkers {
		parserOpts = append(parserOpts,
			parser.WithASTTransformers(util.Prioritized(&lineMarkers{}, 100)))
	}
	return &goldmarkParser{md: goldmark.New(
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// lineMarkers annotates top-level blocks with their 1-based source line
// so a preview pane can scroll-sync against the editor.
type lineMarkers struct{}

func (t *lineMarkers) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Type() != ast.TypeBlock || n.Lines().Len() == 0 {
			continue
		}
		start := n.Lines().At(0).Start
		if start > len(src) {
			continue
		}
		line := 1 + bytes.Count(src[:start], []byte("\n"))
		n.SetAttributeString("data-line", []byte(strconv.Itoa(line)))
	}
}
