// links.go rewrites root-relative link targets. Markup authored against
// a site root ("~/" or a leading "/") previews correctly only when those
// prefixes resolve against the document's preview root.

package render

import (
	"regexp"
	"strings"
)

var (
	// ](~/... - site-root shorthand.
	tildeLinkRe = regexp.MustCompile(`\]\(~/`)
	// ](/...   - root-relative, but not protocol-relative (//).
	rootLinkRe = regexp.MustCompile(`\]\(/([^/)])`)
)

// rewriteRootLinks resolves "~/" and leading-"/" link prefixes against
// root. No-op when root is empty.
func rewriteRootLinks(markup, root string) string {
	if root == "" {
		return markup
	}
	root = strings.TrimRight(root, "/")

	markup = tildeLinkRe.ReplaceAllStringFunc(markup, func(string) string {
		return "](" + root + "/"
	})
	markup = rootLinkRe.ReplaceAllStringFunc(markup, func(m string) string {
		// m is "](/X" where X is the first path byte.
		return "](" + root + "/" + m[3:]
	})
	return markup
}
