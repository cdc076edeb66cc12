package receipt

import (
	"math"
	"strconv"
)

// formatAmount renders a monetary value as a grouped-thousands digit string
// ("27,000"). Values are coerced and rounded to whole rupiah; no currency
// symbol is included so line-item rows keep their width budget.
func formatAmount(v float64) string {
	n := int64(math.Round(num(v)))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// formatRupiah prefixes the currency symbol used in the totals block.
func formatRupiah(v float64) string {
	return "Rp " + formatAmount(v)
}
