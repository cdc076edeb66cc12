// Package escpos encodes marked-up receipt lines into the ESC/POS binary
// command stream accepted by common BLE thermal printers. Encoding is pure;
// it never consults connection state.
package escpos

// Command prefix bytes.
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Alignment values for ESC a.
const (
	AlignLeft   = 0x00
	AlignCenter = 0x01
	AlignRight  = 0x02
)

// Character size values for GS !.
const (
	SizeNormal = 0x00
	SizeDouble = 0x11 // double width + double height
)

// Feed-before-cut amounts for GS V 66 n. The worker copy gets a larger feed
// because continuous paper needs more clearance before a clean tear.
const (
	FeedInvoice    = 0x40
	FeedWorkerCopy = 0x78
)

func initialize() []byte { return []byte{ESC, '@'} }

func setAlign(a byte) []byte { return []byte{ESC, 'a', a} }

func setBold(on bool) []byte {
	b := byte(0)
	if on {
		b = 1
	}
	return []byte{ESC, 'E', b}
}

func setSize(s byte) []byte { return []byte{GS, '!', s} }

// feedCut feeds n vertical motion units and performs a partial cut.
func feedCut(n byte) []byte { return []byte{GS, 'V', 66, n} }
