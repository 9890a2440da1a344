// Package catalog defines the boundary to the product catalog collaborator.
// The engine only reads product attributes; the catalog's persistence and
// lifecycle belong to an external system.
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product carries the attributes the engine evaluates conditions against.
type Product struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryIDs []string        `json:"category_ids"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InCategory reports whether the product belongs to the given category.
// Exact match only; the engine does not descend the category taxonomy.
func (p *Product) InCategory(categoryID string) bool {
	for _, c := range p.CategoryIDs {
		if c == categoryID {
			return true
		}
	}
	return false
}

// Provider supplies product data per evaluation. Implementations are expected
// to be safe for concurrent use.
type Provider interface {
	// ProductsByID returns the products for the given IDs. Unknown IDs are
	// silently omitted from the result.
	ProductsByID(ctx context.Context, ids []string) ([]Product, error)

	// AllProductIDs returns every product ID in the catalog.
	AllProductIDs(ctx context.Context) ([]string, error)

	// ProductIDsByCategory returns the IDs of products in any of the given
	// categories.
	ProductIDsByCategory(ctx context.Context, categoryIDs []string) ([]string, error)
}
