package receipt

import (
	"fmt"
	"strings"
)

// DefaultStore is the receipt header used when the sale carries no store
// identity and no override is configured.
var DefaultStore = Store{
	Name:    "WARUNG POS",
	Address: "Jl. Pasar Baru No. 10, Jakarta",
	Phone:   "0812-0000-0000",
}

const customerNameMax = 20

// RenderInvoice lays out the customer-facing receipt. The store override, if
// non-nil, wins over the sale's own store identity; missing fields fall back
// to DefaultStore. Rendering is pure and never fails on malformed numerics.
func RenderInvoice(sale Sale, storeOverride *Store) []Line {
	store := resolveStore(sale, storeOverride)

	var lines []Line
	for _, part := range wrap(Sanitize(store.Name), WideWidth) {
		lines = append(lines, Line{Text: part, Center: true, Bold: true, DoubleWidth: true})
	}
	for _, part := range wrap(Sanitize(store.Address), NormalWidth) {
		lines = append(lines, Line{Text: part, Center: true})
	}
	for _, part := range wrap("Telp. "+Sanitize(store.Phone), NormalWidth) {
		lines = append(lines, Line{Text: part, Center: true})
	}
	lines = append(lines, Line{})

	lines = append(lines, kv("No", Sanitize(sale.ID)))
	if !sale.Time.IsZero() {
		lines = append(lines, kv("Date", sale.Time.Format("02/01/2006 15:04")))
	}
	if sale.CustomerName != "" {
		name := Sanitize(sale.CustomerName)
		if len(name) > customerNameMax {
			name = name[:customerNameMax]
		}
		lines = append(lines, kv("Customer", name))
	}
	if sale.CustomerPhone != "" {
		lines = append(lines, kv("Phone", Sanitize(sale.CustomerPhone)))
	}

	lines = append(lines, separator())
	for _, it := range sale.Items {
		lines = append(lines, renderItem(it)...)
	}
	lines = append(lines, separator())

	lines = append(lines, kv("Subtotal", formatRupiah(sale.RetailSubtotal())))
	if d := sale.CombinedDiscount(); d > 0 {
		lines = append(lines, kv("Discount", "-"+formatRupiah(d)))
	}
	total := kv("TOTAL:", formatRupiah(sale.ComputedTotal()))
	total.Bold = true
	lines = append(lines, total)

	lines = append(lines, paymentLines(sale)...)

	lines = append(lines,
		Line{},
		Line{Text: "Thank you for shopping", Center: true},
	)
	return lines
}

// renderItem produces the sub-lines for one sold product: the name (wrapped
// when longer than the paper width), the qty-times-price row, and discount
// rows. Discount sub-lines are omitted entirely when their amount is zero.
func renderItem(it LineItem) []Line {
	var lines []Line
	for _, part := range wrap(Sanitize(it.Name), NormalWidth) {
		lines = append(lines, Line{Text: part, Bold: true})
	}

	qty := fmt.Sprintf("%d x %s", it.Qty, formatAmount(it.RetailPrice))
	sub := kv(qty, formatAmount(it.RetailSubtotal()))
	sub.Bold = true
	lines = append(lines, sub)

	if d := it.BulkDiscount(); d > 0 {
		lines = append(lines, rightAlign("-"+formatAmount(d)))
	}
	if d := num(it.Discount); d > 0 {
		lines = append(lines, rightAlign("-"+formatAmount(d)))
	}
	return lines
}

// paymentLines renders the method-specific settlement block.
func paymentLines(sale Sale) []Line {
	var lines []Line
	switch sale.Payment {
	case PaymentCash:
		lines = append(lines, kv("Payment", "Cash"))
		if num(sale.CashReceived) > 0 {
			lines = append(lines, kv("Received", formatRupiah(sale.CashReceived)))
			lines = append(lines, kv("Change", formatRupiah(sale.Change)))
		}
	case PaymentQRIS:
		lines = append(lines, kv("Payment", "QRIS"))
	case PaymentTransfer:
		lines = append(lines, kv("Payment", "Transfer"))
		if t := sale.Transfer; t != nil {
			lines = append(lines,
				kv("Bank", Sanitize(t.Bank)),
				kv("Account", Sanitize(t.AccountNumber)),
				kv("Holder", Sanitize(t.AccountHolder)),
			)
		}
	default:
		lines = append(lines, kv("Payment", Sanitize(string(sale.Payment))))
	}
	return lines
}

// RenderWorkerCopy lays out the price-free picking slip: customer name and
// item quantities only, in double-width text for readability across the
// counter. Names longer than the double-width budget wrap onto continuation
// lines.
func RenderWorkerCopy(sale Sale) []Line {
	var lines []Line
	if sale.CustomerName != "" {
		for _, part := range wrap(strings.ToUpper(Sanitize(sale.CustomerName)), WideWidth) {
			lines = append(lines, Line{Text: part, Bold: true, DoubleWidth: true})
		}
		lines = append(lines, Line{Text: strings.Repeat("-", WideWidth), DoubleWidth: true})
	}
	for _, it := range sale.Items {
		entry := fmt.Sprintf("%s x%d", Sanitize(it.Name), it.Qty)
		for _, part := range wrap(entry, WideWidth) {
			lines = append(lines, Line{Text: part, DoubleWidth: true})
		}
	}
	return lines
}

func resolveStore(sale Sale, override *Store) Store {
	store := DefaultStore
	src := sale.Store
	if override != nil {
		src = override
	}
	if src == nil {
		return store
	}
	if src.Name != "" {
		store.Name = src.Name
	}
	if src.Address != "" {
		store.Address = src.Address
	}
	if src.Phone != "" {
		store.Phone = src.Phone
	}
	return store
}

func separator() Line {
	return Line{Text: strings.Repeat("-", NormalWidth)}
}

// kv builds a full-width line with a left-aligned key and right-aligned
// value. Keys that would collide with the value are truncated so the line
// never exceeds the paper width; an oversized value is truncated too.
func kv(key, value string) Line {
	if len(value) > NormalWidth {
		value = value[:NormalWidth]
	}
	maxKey := NormalWidth - len(value) - 1
	if maxKey < 0 {
		maxKey = 0
	}
	if len(key) > maxKey {
		key = key[:maxKey]
	}
	pad := NormalWidth - len(key) - len(value)
	if pad < 0 {
		pad = 0
	}
	return Line{Text: key + strings.Repeat(" ", pad) + value}
}

func rightAlign(s string) Line {
	if len(s) >= NormalWidth {
		return Line{Text: s[:NormalWidth]}
	}
	return Line{Text: strings.Repeat(" ", NormalWidth-len(s)) + s}
}

// wrap splits text into display lines of at most max bytes, preferring word
// boundaries and never splitting mid-rune. Sanitized input is plain ASCII,
// but the rune guard keeps the helper total for arbitrary text.
func wrap(text string, max int) []string {
	if text == "" {
		return nil
	}
	var out []string
	for len(text) > 0 {
		if len(text) <= max {
			out = append(out, text)
			break
		}
		split := max
		for split > 0 && text[split]&0xC0 == 0x80 {
			split--
		}
		boundary := -1
		for i := split; i > 0; i-- {
			if text[i-1] == ' ' {
				boundary = i
				break
			}
		}
		if boundary > 0 {
			out = append(out, strings.TrimRight(text[:boundary], " "))
			text = text[boundary:]
		} else {
			out = append(out, text[:split])
			text = text[split:]
		}
	}
	return out
}
