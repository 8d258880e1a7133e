package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexcartbd/nexcart/internal/orders"
	"github.com/nexcartbd/nexcart/internal/users"
)

// OrderNotifier turns order lifecycle events into queued emails for the
// customer and the shop admin. Enqueue failures are logged and swallowed:
// notifications must never fail an order mutation.
type OrderNotifier struct {
	client     *Client
	adminEmail string
	logger     *slog.Logger
}

// NewOrderNotifier builds an OrderNotifier.
func NewOrderNotifier(client *Client, adminEmail string, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{client: client, adminEmail: adminEmail, logger: logger}
}

// Notify implements orders.Notifier.
func (n *OrderNotifier) Notify(ctx context.Context, kind orders.NotificationKind, order *orders.Order, customer *users.User) {
	subject, body := n.compose(kind, order)
	if subject == "" {
		return
	}

	n.enqueue(ctx, customer.Email, subject, body)
	if n.adminEmail != "" {
		n.enqueue(ctx, n.adminEmail, "[admin] "+subject, body)
	}
}

func (n *OrderNotifier) compose(kind orders.NotificationKind, order *orders.Order) (string, string) {
	switch kind {
	case orders.NotifyOrderCreated:
		return fmt.Sprintf("Order %s received", order.OrderID),
			fmt.Sprintf("Your order %s for %.2f BDT has been received. Payment method: %s.",
				order.OrderID, order.TotalAmount, order.Payment.Method)
	case orders.NotifyPaymentSubmitted:
		return fmt.Sprintf("Payment submitted for %s", order.OrderID),
			fmt.Sprintf("We received your payment reference %s for order %s. It is now awaiting verification.",
				order.Payment.TransactionID, order.OrderID)
	case orders.NotifyPaymentVerified:
		return fmt.Sprintf("Payment verified for %s", order.OrderID),
			fmt.Sprintf("Your payment for order %s has been verified. We are now processing your order.",
				order.OrderID)
	case orders.NotifyShippingUpdated:
		return fmt.Sprintf("Order %s: %s", order.OrderID, order.Status),
			fmt.Sprintf("Your order %s is now: %s.", order.OrderID, order.Status)
	case orders.NotifyOrderCancelled:
		return fmt.Sprintf("Order %s cancelled", order.OrderID),
			fmt.Sprintf("Order %s has been cancelled.", order.OrderID)
	default:
		return "", ""
	}
}

func (n *OrderNotifier) enqueue(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}
	_, err := n.client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		n.logger.Warn("notification enqueue failed",
			slog.String("to", to), slog.String("subject", subject), slog.Any("error", err))
	}
}
