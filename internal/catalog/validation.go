package catalog

// ValidateProduct checks the invariants every catalogue entry must satisfy
// before it can be persisted.
func ValidateProduct(p Product) error {
	if p.Code == "" {
		return ErrCodeRequired
	}
	if p.TitleEN == "" {
		return ErrTitleRequired
	}
	if p.Price <= 0 {
		return ErrInvalidPrice
	}
	if p.SalePrice != nil && (*p.SalePrice <= 0 || *p.SalePrice >= p.Price) {
		return ErrInvalidSalePrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}
