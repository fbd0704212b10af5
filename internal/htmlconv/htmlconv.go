// Package htmlconv converts HTML back into markdown, the reverse of the
// render pipeline. Conversion is lossy for constructs markdown cannot
// express; scripts and style blocks are dropped outright.
package htmlconv

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// Options configure a conversion.
type Options struct {
	// Domain resolves relative links against a site, e.g. "example.com".
	Domain string
	// Strict disables the GitHub-flavoured rules (tables, strikethrough,
	// task lists) and emits plain CommonMark.
	Strict bool
}

// Convert turns an HTML document or fragment into markdown.
func Convert(html string, o Options) (string, error) {
	conv := md.NewConverter(o.Domain, true, nil)
	if !o.Strict {
		conv.Use(plugin.GitHubFlavored())
	}

	out, err := conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting html: %w", err)
	}
	return out, nil
}
