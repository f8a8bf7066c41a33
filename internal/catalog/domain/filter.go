package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter narrows a catalog snapshot for the listing page. Zero values mean
// "no constraint"; Apply preserves snapshot order.
type Filter struct {
	Gender   Gender
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Query    string
}

func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f Filter) matches(p Product) bool {
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if !f.MinPrice.IsZero() && p.Price.LessThan(f.MinPrice) {
		return false
	}
	if !f.MaxPrice.IsZero() && p.Price.GreaterThan(f.MaxPrice) {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
