package receipt

import "strings"

// Printable widths in characters. Double-width glyphs occupy two normal
// columns, so a double-width line fits half as many characters.
const (
	NormalWidth = 48
	WideWidth   = 24
)

// Line is one marked-up receipt line. Style flags are independent and apply
// to the whole line; text is centered by flag rather than pre-padded so the
// physical encoder can use the printer's own alignment command.
type Line struct {
	Text        string `json:"text"`
	Center      bool   `json:"center,omitempty"`
	Bold        bool   `json:"bold,omitempty"`
	DoubleWidth bool   `json:"double_width,omitempty"`
}

// width returns the character budget for this line's font size.
func (l Line) width() int {
	if l.DoubleWidth {
		return WideWidth
	}
	return NormalWidth
}

// Padded returns the line text at exactly its column width: centered lines
// are padded on both sides, others on the right, and overlong text is
// truncated. This is the single centering implementation shared by the
// on-screen preview and the width checks.
func (l Line) Padded() string {
	w := l.width()
	text := l.Text
	if len(text) > w {
		text = text[:w]
	}
	if !l.Center {
		return text + strings.Repeat(" ", w-len(text))
	}
	left := (w - len(text)) / 2
	right := w - len(text) - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

// Preview renders lines as the plain text the printer will produce. Because
// the layout engine sanitizes before building lines, this is a faithful
// prediction of the physical output.
func Preview(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Padded())
	}
	return b.String()
}
