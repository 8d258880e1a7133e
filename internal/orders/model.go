package orders

import "time"

// Status is an order's fulfilment state. The status field always mirrors the
// last entry of the shipping history.
type Status string

const (
	StatusOrderReceived        Status = "Order Received"
	StatusAwaitingVerification Status = "Awaiting Verification"
	StatusProcessing           Status = "Processing"
	StatusPackaging            Status = "Packaging"
	StatusShipped              Status = "Shipped"
	StatusInTransit            Status = "In Transit"
	StatusOutForDelivery       Status = "Out for Delivery"
	StatusDelivered            Status = "Delivered"
	StatusCancelled            Status = "Cancelled"
	StatusOnHold               Status = "On Hold"
)

// PaymentMethod names the payment channel chosen at checkout.
type PaymentMethod string

const (
	MethodBkash  PaymentMethod = "bkash"
	MethodNagad  PaymentMethod = "nagad"
	MethodRocket PaymentMethod = "rocket"
	MethodBank   PaymentMethod = "bank"
	MethodCard   PaymentMethod = "card"
	MethodCOD    PaymentMethod = "cod"
)

// MFSMethods are the mobile-financial-service channels, which share the
// manual send-money + transaction-id flow.
var MFSMethods = map[PaymentMethod]bool{
	MethodBkash:  true,
	MethodNagad:  true,
	MethodRocket: true,
}

// KnownMethods is the closed set of accepted payment methods.
var KnownMethods = map[PaymentMethod]bool{
	MethodBkash:  true,
	MethodNagad:  true,
	MethodRocket: true,
	MethodBank:   true,
	MethodCard:   true,
	MethodCOD:    true,
}

// PaymentStatus is the verification state of an order's payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentVerified PaymentStatus = "Verified"
	PaymentFailed   PaymentStatus = "Failed"
)

// shippingTransitions is the legal admin progression graph. Delivered and
// Cancelled are terminal. Order Received is the history seed only and is
// never a transition target.
var shippingTransitions = map[Status][]Status{
	StatusAwaitingVerification: {StatusProcessing, StatusOnHold, StatusCancelled},
	StatusProcessing:           {StatusPackaging, StatusOnHold, StatusCancelled},
	StatusPackaging:            {StatusShipped, StatusOnHold, StatusCancelled},
	StatusShipped:              {StatusInTransit, StatusOutForDelivery, StatusDelivered},
	StatusInTransit:            {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery:       {StatusDelivered},
	StatusOnHold:               {StatusProcessing, StatusPackaging, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal progression.
func CanTransition(from, to Status) bool {
	for _, next := range shippingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// cancellableStatuses is the customer-side cancellation window. Once
// packaging is done and the parcel is shipped, only the admin flow applies.
var cancellableStatuses = map[Status]bool{
	StatusAwaitingVerification: true,
	StatusProcessing:           true,
	StatusPackaging:            true,
	StatusOnHold:               true,
}

// Cancellable reports whether a customer may still cancel at this status.
func Cancellable(s Status) bool {
	return cancellableStatuses[s]
}

// Item is an immutable snapshot of one order line. Prices and costs are
// copied at creation time so later catalogue edits never change the ledger.
type Item struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"-"`
	Color     string  `json:"color,omitempty"`
	Size      string  `json:"size,omitempty"`
}

// ShippingAddress is where the parcel goes.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	ZipCode  string `json:"zip_code,omitempty"`
}

// PaymentDetails records the submitted payment and its verification state.
// ReceiverNumber is the shop account the customer was told to pay into;
// SenderNumber is the wallet the customer claims to have paid from.
type PaymentDetails struct {
	Method         PaymentMethod `json:"method"`
	TransactionID  string        `json:"transaction_id,omitempty"`
	ReceiverNumber string        `json:"receiver_number,omitempty"`
	SenderNumber   string        `json:"sender_number,omitempty"`
	Amount         float64       `json:"amount"`
	Status         PaymentStatus `json:"status"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
	VerifiedAt     *time.Time    `json:"verified_at,omitempty"`
}

// ShippingUpdate is one append-only history entry.
type ShippingUpdate struct {
	Status Status    `json:"status"`
	Date   time.Time `json:"date"`
	Notes  string    `json:"notes,omitempty"`
}

// Order is the full ledger record.
type Order struct {
	ID              int64            `json:"-"`
	OrderID         string           `json:"order_id"`
	UserID          int64            `json:"user_id"`
	Items           []Item           `json:"items"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
	Subtotal        float64          `json:"subtotal"`
	DeliveryCharge  float64          `json:"delivery_charge"`
	TotalAmount     float64          `json:"total_amount"`
	TotalBuyAmount  float64          `json:"-"`
	ShippingCost    float64          `json:"-"`
	Payment         PaymentDetails   `json:"payment"`
	Status          Status           `json:"status"`
	ShippingUpdates []ShippingUpdate `json:"shipping_updates"`
	IsDeleted       bool             `json:"-"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Profit is the derived margin: revenue minus goods cost minus what we paid
// the courier. Never stored.
func (o *Order) Profit() float64 {
	return o.TotalAmount - o.TotalBuyAmount - o.ShippingCost
}

// TrackingView is the unauthenticated tracking projection. No financials, no
// customer identity beyond the recipient name already on the parcel.
type TrackingView struct {
	OrderID         string           `json:"order_id"`
	Status          Status           `json:"status"`
	ShippingUpdates []ShippingUpdate `json:"shipping_updates"`
}

// Track builds the public projection of an order.
func (o *Order) Track() TrackingView {
	return TrackingView{
		OrderID:         o.OrderID,
		Status:          o.Status,
		ShippingUpdates: o.ShippingUpdates,
	}
}
