package orders

import (
	"fmt"

	"github.com/nexcartbd/nexcart/internal/platform/httpx"
)

var (
	ErrNotFound         = fmt.Errorf("%w: order not found", httpx.ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("%w: customer not found", httpx.ErrNotFound)

	ErrEmptyItems            = fmt.Errorf("%w: order must contain at least one item", httpx.ErrValidation)
	ErrAddressIncomplete     = fmt.Errorf("%w: shipping address is incomplete", httpx.ErrValidation)
	ErrUnknownMethod         = fmt.Errorf("%w: unknown payment method", httpx.ErrValidation)
	ErrInvalidQuantity       = fmt.Errorf("%w: item quantity must be positive", httpx.ErrValidation)
	ErrInvalidCharge         = fmt.Errorf("%w: delivery charge cannot be negative", httpx.ErrValidation)
	ErrTransactionIDRequired = fmt.Errorf("%w: transaction id is required", httpx.ErrValidation)

	ErrAmountMismatch = fmt.Errorf("%w: declared total does not match server-computed total", httpx.ErrPriceMismatch)

	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", httpx.ErrInsufficientStock)

	ErrNotPendingPayment    = fmt.Errorf("%w: order is not awaiting payment submission", httpx.ErrConflict)
	ErrDuplicateTransaction = fmt.Errorf("%w: transaction id already used", httpx.ErrConflict)
	ErrAlreadyVerified      = fmt.Errorf("%w: payment is not pending verification", httpx.ErrConflict)
	ErrAlreadyCancelled     = fmt.Errorf("%w: order is already cancelled", httpx.ErrConflict)

	ErrInvalidTransition = fmt.Errorf("%w: illegal status transition", httpx.ErrInvalidTransition)
	ErrNotCancellable    = fmt.Errorf("%w: order can no longer be cancelled", httpx.ErrInvalidTransition)

	ErrNotOwner = fmt.Errorf("%w: order belongs to another customer", httpx.ErrForbidden)

	ErrOrderIDCollision      = fmt.Errorf("%w: order id already taken", httpx.ErrConflict)
	ErrIDGenerationExhausted = fmt.Errorf("%w: order id generation exhausted retries", httpx.ErrConflict)
)
