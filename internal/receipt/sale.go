// Package receipt holds the sale data model and the layout engine that
// turns a Sale into marked-up text lines for a 58/80mm thermal printer.
// Everything in this package is pure: no I/O, no device knowledge.
package receipt

import (
	"math"
	"time"
)

// PaymentMethod is how the customer settled the sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
)

// PriceBasis selects which of the two price tiers a line was sold at.
type PriceBasis string

const (
	BasisRetail PriceBasis = "retail"
	BasisBulk   PriceBasis = "bulk"
)

// LineItem is a single sold product line. Monetary derived values are never
// stored; they are recomputed from the stored fields on every render.
type LineItem struct {
	Name        string     `json:"name"`
	Qty         int        `json:"qty"`
	Basis       PriceBasis `json:"basis"`
	RetailPrice float64    `json:"retail_price"`
	BulkPrice   float64    `json:"bulk_price"`
	Discount    float64    `json:"discount"` // flat per-line amount
}

// BankTransfer carries the account details shown on transfer receipts.
type BankTransfer struct {
	Bank          string `json:"bank"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// Store identifies the shop on the receipt header.
type Store struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Sale is the inbound record supplied by the checkout flow. It is treated
// as immutable once constructed.
type Sale struct {
	ID            string        `json:"id"`
	Time          time.Time     `json:"time"`
	Items         []LineItem    `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Discount      float64       `json:"discount"` // whole-sale discount
	Total         float64       `json:"total"`
	Payment       PaymentMethod `json:"payment"`
	CashReceived  float64       `json:"cash_received,omitempty"`
	Change        float64       `json:"change,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Transfer      *BankTransfer `json:"transfer,omitempty"`
	Store         *Store        `json:"store,omitempty"`
	WorkerCopy    bool          `json:"worker_copy,omitempty"`
}

// num coerces NaN/Inf to 0 so a corrupt upstream record degrades to a
// slightly-wrong receipt instead of a failed print.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// qty coerces a non-positive quantity to 0.
func (it LineItem) qty() float64 {
	if it.Qty < 0 {
		return 0
	}
	return float64(it.Qty)
}

// RetailSubtotal is the line value at retail pricing, before any discount.
func (it LineItem) RetailSubtotal() float64 {
	return num(it.RetailPrice) * it.qty()
}

// BulkDiscount is the retail-vs-bulk difference when the line was sold at
// bulk pricing, 0 otherwise.
func (it LineItem) BulkDiscount() float64 {
	if it.Basis != BasisBulk {
		return 0
	}
	return (num(it.RetailPrice) - num(it.BulkPrice)) * it.qty()
}

// LineTotal is the payable amount for this line, floored at 0.
func (it LineItem) LineTotal() float64 {
	total := it.RetailSubtotal() - it.BulkDiscount() - num(it.Discount)
	if total < 0 {
		return 0
	}
	return total
}

// RetailSubtotal sums all lines at retail pricing, before any discount.
func (s Sale) RetailSubtotal() float64 {
	var sum float64
	for _, it := range s.Items {
		sum += it.RetailSubtotal()
	}
	return sum
}

// CombinedDiscount sums bulk discounts, per-line discounts, and the
// whole-sale discount into the single figure shown in the totals block.
func (s Sale) CombinedDiscount() float64 {
	sum := num(s.Discount)
	for _, it := range s.Items {
		sum += it.BulkDiscount() + num(it.Discount)
	}
	return sum
}

// ComputedTotal is RetailSubtotal minus CombinedDiscount. For a well-formed
// Sale this equals the Total field.
func (s Sale) ComputedTotal() float64 {
	total := s.RetailSubtotal() - s.CombinedDiscount()
	if total < 0 {
		return 0
	}
	return total
}
