package orders

import (
	"context"
	"fmt"

	"github.com/nexcartbd/nexcart/internal/catalog"
)

// CatalogPort is the slice of the catalogue the resolver needs. Archived and
// deleted products are invisible through it.
type CatalogPort interface {
	Get(ctx context.Context, id int64, includeArchived bool) (*catalog.Product, error)
}

// Resolver turns checkout lines into priced, costed item snapshots using
// server-side catalogue data only.
type Resolver struct {
	catalog CatalogPort
}

// NewResolver builds a Resolver.
func NewResolver(c CatalogPort) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve snapshots every requested line and returns the items plus their
// subtotal. Unknown, archived or deleted products fail the whole checkout.
// Stock is checked here only as a fast pre-check; the authoritative guard is
// the conditional decrement inside the order transaction.
func (r *Resolver) Resolve(ctx context.Context, lines []CreateOrderItem) ([]Item, float64, error) {
	items := make([]Item, 0, len(lines))
	var subtotal float64

	for _, line := range lines {
		product, err := r.catalog.Get(ctx, line.ProductID, false)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}
		if !product.Orderable() {
			return nil, 0, fmt.Errorf("resolve product %d: %w", line.ProductID, catalog.ErrNotFound)
		}
		if product.Stock < line.Quantity {
			return nil, 0, fmt.Errorf("product %d: %w", line.ProductID, ErrInsufficientStock)
		}

		unitPrice := product.SellPrice()
		items = append(items, Item{
			ProductID: product.ID,
			Title:     product.TitleEN,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			UnitCost:  product.BuyPrice,
			Color:     line.Color,
			Size:      line.Size,
		})
		subtotal += unitPrice * float64(line.Quantity)
	}
	return items, subtotal, nil
}
