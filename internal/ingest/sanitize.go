// Package ingest prepares listing text for a downstream ingestion
// pipeline: sanitization plus token-bounded chunking. No retrieval or
// vector indexing happens here.
package ingest

import (
	"strings"
	"unicode"
)

// zero-width and BOM runes that survive naive whitespace trimming.
var invisibleRunes = map[rune]struct{}{
	'\u200b': {}, // zero width space
	'\u200c': {}, // zero width non-joiner
	'\u200d': {}, // zero width joiner
	'\ufeff': {}, // byte order mark
}

// Sanitize strips control and zero-width characters and collapses runs of
// whitespace into single spaces, preserving paragraph breaks.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if _, invisible := invisibleRunes[r]; invisible {
			continue
		}
		switch {
		case r == '\n':
			b.WriteRune('\n')
		case unicode.IsControl(r):
			// Tabs and carriage returns become plain spaces; everything
			// else is dropped.
			if r == '\t' || r == '\r' {
				b.WriteRune(' ')
			}
		default:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
