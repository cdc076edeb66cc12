package escpos

import (
	"bytes"

	"github.com/hendrawan/posprint/internal/receipt"
)

// EncodeInvoice encodes a customer receipt with the standard cut feed.
func EncodeInvoice(lines []receipt.Line) []byte {
	return Encode(lines, FeedInvoice)
}

// EncodeWorkerCopy encodes a picking slip with the larger cut feed.
func EncodeWorkerCopy(lines []receipt.Line) []byte {
	return Encode(lines, FeedWorkerCopy)
}

// Encode turns marked-up lines into a complete print job: initialize, one
// styled text line per input line, then a blank feed and a feed-and-partial-
// cut. Style commands are reset after every line; alignment is only
// re-issued when it changes, since the printer centers text itself.
func Encode(lines []receipt.Line, cutFeed byte) []byte {
	var buf bytes.Buffer
	buf.Write(initialize())

	centered := false
	for _, l := range lines {
		if l.Center && !centered {
			buf.Write(setAlign(AlignCenter))
			centered = true
		} else if !l.Center && centered {
			buf.Write(setAlign(AlignLeft))
			centered = false
		}
		if l.Bold {
			buf.Write(setBold(true))
		}
		if l.DoubleWidth {
			buf.Write(setSize(SizeDouble))
		}
		buf.WriteString(l.Text)
		buf.WriteByte(LF)
		if l.Bold {
			buf.Write(setBold(false))
		}
		if l.DoubleWidth {
			buf.Write(setSize(SizeNormal))
		}
	}
	if centered {
		buf.Write(setAlign(AlignLeft))
	}

	buf.WriteByte(LF)
	buf.Write(feedCut(cutFeed))
	return buf.Bytes()
}
