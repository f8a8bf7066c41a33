package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a requested product does not exist.
var ErrProductNotFound = errors.New("product not found")

// Gender is the catalog's audience tag for a product.
type Gender string

const (
	GenderWomen  Gender = "women"
	GenderMen    Gender = "men"
	GenderUnisex Gender = "unisex"
)

// Product is one catalog item. The catalog is external and read-only; a
// fetched set of products is treated as an immutable snapshot for the
// lifetime of a page.
type Product struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	ImageURL string
	Gender   Gender
}

// Source defines read operations against the external catalog.
// Consumers define this interface, not the HTTP or SQLite implementations.
type Source interface {
	FetchAll(ctx context.Context) ([]Product, error)
	FetchOne(ctx context.Context, id string) (Product, error)
}

// ByID indexes a snapshot by product id for projection lookups.
func ByID(products []Product) map[string]Product {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
