package orders

import "time"

// CreateOrderItem is one checkout line: the client names the product and
// quantity only, never prices.
type CreateOrderItem struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress   `json:"shipping_address"`
	PaymentMethod   PaymentMethod     `json:"payment_method" validate:"required"`
	DeliveryCharge  float64           `json:"delivery_charge"`
	DeclaredTotal   float64           `json:"declared_total" validate:"gt=0"`
}

// SubmitPaymentRequest carries the customer's manual payment proof.
type SubmitPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	SenderNumber  string `json:"sender_number"`
}

// UpdateStatusRequest is the admin shipping progression payload.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status         *Status
	PaymentStatus  *PaymentStatus
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// PaymentInstructions tells the customer how to settle a pending order.
type PaymentInstructions struct {
	OrderID        string        `json:"order_id"`
	Method         PaymentMethod `json:"method"`
	Amount         float64       `json:"amount"`
	ReceiverNumber string        `json:"receiver_number,omitempty"`
	QRPayload      string        `json:"qr_payload,omitempty"`
	BankDetails    *BankDetails  `json:"bank_details,omitempty"`
}

// BankDetails is the manual bank-transfer destination account.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}
