package receipt

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text (NFD) and drops combining marks, turning e.g.
// "é" into "e" before the ASCII filter runs.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Sanitize reduces text to the printer's supported character set: diacritics
// are decomposed and stripped, and any remaining rune outside printable
// ASCII becomes '?'. Sanitizing already-sanitized text is a no-op.
func Sanitize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if r >= 0x20 && r < 0x7F {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
