// theme.go loads theme templates and merges rendered fragments into
// them. A theme is a directory containing theme.html with placeholder
// tokens. Missing themes degrade: requested -> configured default ->
// inline minimal page, so renderToFile always has a template to merge
// into.

package render

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder tokens recognised in theme templates.
const (
	TokenThemePath    = "{$themePath}"
	TokenDocPath      = "{$docPath}"
	TokenMarkdownHTML = "{$markdownHtml}"
	TokenMarkdown     = "{$markdown}"
	TokenExtraHeaders = "{$extraHeaders}"
)

// themeFileName is the template file inside each theme directory.
const themeFileName = "theme.html"

// inlineTemplate is the last-resort page used when neither the requested
// nor the default theme can be loaded.
const inlineTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>markview</title>
{$extraHeaders}
</head>
<body>
{$markdownHtml}
</body>
</html>
`

// Theme is a loaded template ready for merging.
type Theme struct {
	// Name is the theme actually in use, which may be a fallback.
	Name string
	// Dir is the theme directory, empty for the inline template.
	Dir string
	// Template is the raw template text with placeholder tokens.
	Template string
}

// LoadTheme loads the named theme from themesDir, falling back to the
// default theme and finally to the inline minimal template.
func LoadTheme(themesDir, name, fallback string) Theme {
	for _, candidate := range []string{name, fallback} {
		if candidate == "" {
			continue
		}
		dir := filepath.Join(themesDir, candidate)
		raw, err := os.ReadFile(filepath.Join(dir, themeFileName))
		if err != nil {
			continue
		}
		return Theme{Name: candidate, Dir: dir, Template: string(raw)}
	}
	return Theme{Name: name, Template: inlineTemplate}
}

// Merge substitutes the placeholder tokens into the template.
func (t Theme) Merge(docPath, fragment, markup, extraHeaders string) string {
	return strings.NewReplacer(
		TokenThemePath, t.Dir,
		TokenDocPath, docPath,
		TokenMarkdownHTML, fragment,
		TokenMarkdown, markup,
		TokenExtraHeaders, extraHeaders,
	).Replace(t.Template)
}

var baseTagRe = regexp.MustCompile(`(?i)<base\b[^>]*>\s*`)

// StripBaseTag removes any <base> tag from a merged page, for embedders
// that resolve relative URLs themselves.
func StripBaseTag(page string) string {
	return baseTagRe.ReplaceAllString(page, "")
}
