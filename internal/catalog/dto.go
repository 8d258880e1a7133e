package catalog

// CreateProductRequest is the admin payload for adding a catalogue entry.
type CreateProductRequest struct {
	Code          string   `json:"code" validate:"required"`
	TitleEN       string   `json:"title_en" validate:"required"`
	TitleBN       string   `json:"title_bn"`
	DescriptionEN string   `json:"description_en"`
	BuyPrice      float64  `json:"buy_price" validate:"gte=0"`
	Price         float64  `json:"price" validate:"gt=0"`
	SalePrice     *float64 `json:"sale_price"`
	Stock         int64    `json:"stock" validate:"gte=0"`
	Images        []string `json:"images"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
}

// UpdateProductRequest is the admin payload for editing a catalogue entry.
type UpdateProductRequest struct {
	TitleEN       string   `json:"title_en" validate:"required"`
	TitleBN       string   `json:"title_bn"`
	DescriptionEN string   `json:"description_en"`
	BuyPrice      float64  `json:"buy_price" validate:"gte=0"`
	Price         float64  `json:"price" validate:"gt=0"`
	SalePrice     *float64 `json:"sale_price"`
	Stock         int64    `json:"stock" validate:"gte=0"`
	Images        []string `json:"images"`
	Colors        []string `json:"colors"`
	Sizes         []string `json:"sizes"`
	Status        string   `json:"status" validate:"omitempty,oneof=active inactive archived"`
}

func (r CreateProductRequest) toProduct() Product {
	return Product{
		Code:          r.Code,
		TitleEN:       r.TitleEN,
		TitleBN:       r.TitleBN,
		DescriptionEN: r.DescriptionEN,
		BuyPrice:      r.BuyPrice,
		Price:         r.Price,
		SalePrice:     r.SalePrice,
		Stock:         r.Stock,
		Images:        r.Images,
		Colors:        r.Colors,
		Sizes:         r.Sizes,
	}
}

func (r UpdateProductRequest) toProduct() Product {
	return Product{
		TitleEN:       r.TitleEN,
		TitleBN:       r.TitleBN,
		DescriptionEN: r.DescriptionEN,
		BuyPrice:      r.BuyPrice,
		Price:         r.Price,
		SalePrice:     r.SalePrice,
		Stock:         r.Stock,
		Images:        r.Images,
		Colors:        r.Colors,
		Sizes:         r.Sizes,
		Status:        ProductStatus(r.Status),
	}
}
