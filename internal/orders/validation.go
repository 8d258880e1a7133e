package orders

import "strings"

// ValidateCreate checks the structural invariants of a checkout request
// before any pricing or stock work happens.
func ValidateCreate(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !KnownMethods[req.PaymentMethod] {
		return ErrUnknownMethod
	}
	if req.DeliveryCharge < 0 {
		return ErrInvalidCharge
	}
	addr := req.ShippingAddress
	if strings.TrimSpace(addr.FullName) == "" ||
		strings.TrimSpace(addr.Phone) == "" ||
		strings.TrimSpace(addr.Address) == "" ||
		strings.TrimSpace(addr.City) == "" {
		return ErrAddressIncomplete
	}
	return nil
}
