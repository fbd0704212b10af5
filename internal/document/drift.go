// drift.go reports what an external edit actually changed. The engine
// never merges - checksum drift only flags "someone else touched this
// file", and the diff gives the reconciliation UI something to show the
// user before they decide to reload or overwrite.

package document

import (
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DriftReport returns a unified-style diff between the in-memory text
// and the current on-disk text. Empty when there is no drift, the file
// is unreadable, or the on-disk content is encrypted with an unusable
// credential (the diff would be noise).
func (d *Document) DriftReport() string {
	if !d.HasFileChanged() {
		return ""
	}

	raw, err := os.ReadFile(d.Filename())
	if err != nil {
		return ""
	}
	onDisk, err := d.Encoding().Decode(raw)
	if err != nil {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(d.Text(), onDisk, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return formatDiff(diffs)
}

// formatDiff converts diffs to unified-style text: "-" for in-memory
// only, "+" for on-disk only, two spaces for common lines.
func formatDiff(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder
	for _, df := range diffs {
		text := strings.TrimSuffix(df.Text, "\n")
		if text == "" {
			continue
		}
		prefix := "  "
		switch df.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, l := range strings.Split(text, "\n") {
			b.WriteString(prefix + l + "\n")
		}
	}
	return b.String()
}
