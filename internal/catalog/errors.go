package catalog

import (
	"fmt"

	"github.com/nexcartbd/nexcart/internal/platform/httpx"
)

// Domain errors for the catalogue.
var (
	// ErrNotFound indicates the product is missing, archived or soft-deleted.
	ErrNotFound = fmt.Errorf("%w: product", httpx.ErrNotFound)
	// ErrInsufficientStock indicates the requested quantity exceeds stock.
	ErrInsufficientStock = fmt.Errorf("%w: product stock", httpx.ErrInsufficientStock)
	// ErrDuplicateCode indicates a product code collision.
	ErrDuplicateCode = fmt.Errorf("%w: product code already exists", httpx.ErrConflict)

	// Validation errors.
	ErrTitleRequired    = fmt.Errorf("%w: title is required", httpx.ErrValidation)
	ErrCodeRequired     = fmt.Errorf("%w: product code is required", httpx.ErrValidation)
	ErrInvalidPrice     = fmt.Errorf("%w: price must be greater than zero", httpx.ErrValidation)
	ErrInvalidSalePrice = fmt.Errorf("%w: sale price must be positive and below the regular price", httpx.ErrValidation)
	ErrInvalidStock     = fmt.Errorf("%w: stock must not be negative", httpx.ErrValidation)
)
