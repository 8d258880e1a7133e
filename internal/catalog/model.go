package catalog

import "time"

// ProductStatus tracks catalogue visibility.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a sellable catalogue entry. BuyPrice is the internal cost and is
// never exposed on customer-facing responses; SellPrice is the authoritative
// price the order ledger snapshots at order time.
type Product struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	TitleEN       string        `json:"title_en"`
	TitleBN       string        `json:"title_bn,omitempty"`
	Slug          string        `json:"slug"`
	DescriptionEN string        `json:"description_en,omitempty"`
	BuyPrice      float64       `json:"-"`
	Price         float64       `json:"price"`
	SalePrice     *float64      `json:"sale_price,omitempty"`
	Stock         int64         `json:"stock"`
	Images        []string      `json:"images"`
	Colors        []string      `json:"colors"`
	Sizes         []string      `json:"sizes"`
	Status        ProductStatus `json:"status"`
	SupplierRef   *SupplierRef  `json:"-"`
	IsDeleted     bool          `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SupplierRef links a product back to the upstream reseller catalogue.
type SupplierRef struct {
	Provider     string `json:"provider"`
	ProductAPIID string `json:"product_api_id"`
	OriginalLink string `json:"original_link,omitempty"`
}

// SellPrice returns the effective unit price: the sale price when set and
// positive, else the regular price.
func (p *Product) SellPrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

// Orderable reports whether new orders may reference this product.
func (p *Product) Orderable() bool {
	return p.Status == ProductStatusActive && !p.IsDeleted
}
