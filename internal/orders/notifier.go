package orders

import (
	"context"

	"github.com/nexcartbd/nexcart/internal/users"
)

// NotificationKind names a lifecycle event worth telling people about.
type NotificationKind string

const (
	NotifyOrderCreated     NotificationKind = "order_created"
	NotifyPaymentSubmitted NotificationKind = "payment_submitted"
	NotifyPaymentVerified  NotificationKind = "payment_verified"
	NotifyShippingUpdated  NotificationKind = "shipping_updated"
	NotifyOrderCancelled   NotificationKind = "order_cancelled"
)

// Notifier fans lifecycle events out to the customer and the shop admin.
// Implementations must never fail the order flow: delivery problems are
// logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, order *Order, customer *users.User)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, NotificationKind, *Order, *users.User) {}
