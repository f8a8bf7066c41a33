// Package projection joins persisted cart lines with a point-in-time catalog
// snapshot to produce display-ready, priced line items and totals. Both
// operations here are pure functions: no state, no network awareness.
package projection

import (
	"github.com/shopspring/decimal"

	cartdomain "github.com/dkress/shopfront/internal/cart/domain"
	catalogdomain "github.com/dkress/shopfront/internal/catalog/domain"
)

// LineItem is one priced, titled cart line. Ephemeral: recomputed on every
// render pass, never persisted.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Totals aggregates line items into checkout figures.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// TaxFunc computes tax from a subtotal. A policy hook: the storefront ships
// with ZeroTax until a real tax rule lands.
type TaxFunc func(subtotal decimal.Decimal) decimal.Decimal

// ZeroTax is the default tax policy.
func ZeroTax(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// Project emits one LineItem per cart line that has a matching product in
// the snapshot, in the cart's own order. Unit prices always come from the
// given snapshot, so a price change between add-to-cart and checkout is
// reflected automatically. A line whose product is missing from the snapshot
// is silently dropped: the persisted line survives and reappears once a
// later snapshot contains the product again.
func Project(cart cartdomain.Cart, byID map[string]catalogdomain.Product) []LineItem {
	items := make([]LineItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		items = append(items, LineItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Title:     p.Title,
			ImageURL:  p.ImageURL,
			UnitPrice: p.Price,
			LineTotal: p.Price.Mul(qty),
		})
	}
	return items
}

// Aggregate sums line totals into subtotal/tax/total. A nil taxFn means
// ZeroTax.
func Aggregate(items []LineItem, taxFn TaxFunc) Totals {
	if taxFn == nil {
		taxFn = ZeroTax
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	tax := taxFn(subtotal)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// FormatCurrency renders a money value with exactly two fractional digits,
// rounding half to even. Inputs are already cent-quantized, so the tie-break
// rule only matters for consistency across repeated calls.
func FormatCurrency(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}
