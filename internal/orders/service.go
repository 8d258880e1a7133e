package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nexcartbd/nexcart/internal/users"
)

// amountEpsilon absorbs float representation noise when comparing the
// client's declared total with the server-computed one.
const amountEpsilon = 0.009

// maxIDAttempts bounds retries when the daily sequence races.
const maxIDAttempts = 5

// UsersPort is the slice of the accounts module the ledger needs.
type UsersPort interface {
	Get(ctx context.Context, id int64, includeDeleted bool) (*users.User, error)
}

// Invalidator bumps the dashboard cache after ledger mutations.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service implements the order lifecycle: checkout, manual payment
// submission, admin verification, shipping progression and cancellation.
type Service struct {
	repo        Repository
	users       UsersPort
	resolver    *Resolver
	notifier    Notifier
	invalidator Invalidator
	logger      *slog.Logger

	receiverNumbers map[PaymentMethod]string
	bank            BankDetails

	now func() time.Time
}

// ServiceParams collects Service dependencies.
type ServiceParams struct {
	Repo            Repository
	Users           UsersPort
	Resolver        *Resolver
	Notifier        Notifier
	Invalidator     Invalidator
	Logger          *slog.Logger
	ReceiverNumbers map[PaymentMethod]string
	Bank            BankDetails
}

// NewService builds Service.
func NewService(p ServiceParams) *Service {
	if p.Notifier == nil {
		p.Notifier = NopNotifier{}
	}
	return &Service{
		repo:            p.Repo,
		users:           p.Users,
		resolver:        p.Resolver,
		notifier:        p.Notifier,
		invalidator:     p.Invalidator,
		logger:          p.Logger,
		receiverNumbers: p.ReceiverNumbers,
		bank:            p.Bank,
		now:             time.Now,
	}
}

// Create runs a checkout. Pricing is entirely server-side: the client's
// declared total is only a confirmation of what it was shown, and the order
// is rejected when it disagrees with the catalogue.
func (s *Service) Create(ctx context.Context, userID int64, req CreateOrderRequest) (*Order, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	customer, err := s.users.Get(ctx, userID, false)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	items, subtotal, err := s.resolver.Resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	grandTotal := subtotal + req.DeliveryCharge
	if math.Abs(grandTotal-req.DeclaredTotal) > amountEpsilon {
		return nil, fmt.Errorf("%w: declared %.2f, computed %.2f",
			ErrAmountMismatch, req.DeclaredTotal, grandTotal)
	}

	var totalBuy float64
	for _, item := range items {
		totalBuy += item.UnitCost * float64(item.Quantity)
	}

	now := s.now().UTC()
	order := &Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        subtotal,
		DeliveryCharge:  req.DeliveryCharge,
		TotalAmount:     grandTotal,
		TotalBuyAmount:  totalBuy,
		Payment: PaymentDetails{
			Method:         req.PaymentMethod,
			ReceiverNumber: s.receiverNumbers[req.PaymentMethod],
			Amount:         grandTotal,
			Status:         PaymentPending,
		},
		Status: StatusAwaitingVerification,
		ShippingUpdates: []ShippingUpdate{
			{Status: StatusOrderReceived, Date: now},
			{Status: StatusAwaitingVerification, Date: now},
		},
	}
	if req.PaymentMethod == MethodCOD {
		// Nothing to verify for cash on delivery: the order goes straight
		// to fulfilment.
		order.Payment.Status = PaymentVerified
		order.Payment.VerifiedAt = &now
		order.Status = StatusProcessing
		order.ShippingUpdates = []ShippingUpdate{
			{Status: StatusOrderReceived, Date: now},
			{Status: StatusProcessing, Date: now, Notes: "Cash on Delivery"},
		}
	}

	create := func(ctx context.Context, tx TxRepository) error {
		for _, item := range order.Items {
			ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
			}
		}

		orderID, err := s.nextOrderID(ctx, tx, now)
		if err != nil {
			return err
		}
		order.OrderID = orderID
		return tx.Insert(ctx, order)
	}

	// The in-transaction ExistsOrderID pre-check cannot see a competing
	// checkout's uncommitted insert, so the unique index can still fire at
	// commit. Each failed attempt rolls back fully; the next one recounts the
	// day and picks a fresh candidate.
	for attempt := 0; ; attempt++ {
		err = s.repo.WithTx(ctx, create)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrOrderIDCollision) {
			return nil, err
		}
		if attempt+1 >= maxIDAttempts {
			return nil, ErrIDGenerationExhausted
		}
		s.logger.Warn("order id collision, retrying",
			slog.String("order_id", order.OrderID), slog.Int("attempt", attempt+1))
	}

	s.logger.Info("order created",
		slog.String("order_id", order.OrderID),
		slog.Int64("user_id", userID),
		slog.String("method", string(order.Payment.Method)),
		slog.Float64("total", order.TotalAmount))

	s.notifier.Notify(ctx, NotifyOrderCreated, order, customer)
	s.bump(ctx)
	return order, nil
}

func (s *Service) nextOrderID(ctx context.Context, tx TxRepository, now time.Time) (string, error) {
	dayStart, dayEnd := DayRange(now)
	count, err := tx.CountCreatedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return "", err
	}
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := FormatOrderID(dayStart, count+1+int64(attempt))
		exists, err := tx.ExistsOrderID(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrIDGenerationExhausted
}

// SubmitPayment records the customer's manual payment proof. Idempotency
// comes from the single-submission gate plus the global transaction-id
// uniqueness constraint.
func (s *Service) SubmitPayment(ctx context.Context, userID int64, orderID string, req SubmitPaymentRequest) (*Order, error) {
	if req.TransactionID == "" {
		return nil, ErrTransactionIDRequired
	}

	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOwner
		}
		if o.Payment.Method == MethodCOD {
			return ErrNotPendingPayment
		}
		if o.Payment.Status != PaymentPending ||
			o.Status != StatusAwaitingVerification ||
			o.Payment.TransactionID != "" {
			return ErrNotPendingPayment
		}

		now := s.now().UTC()
		if err := tx.UpdatePaymentSubmission(ctx, orderID, req.TransactionID, req.SenderNumber, now); err != nil {
			return err
		}
		o.Payment.TransactionID = req.TransactionID
		o.Payment.SenderNumber = req.SenderNumber
		o.Payment.SubmittedAt = &now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment submitted",
		slog.String("order_id", orderID), slog.String("method", string(order.Payment.Method)))
	s.notifyCustomer(ctx, NotifyPaymentSubmitted, order)
	return order, nil
}

// VerifyPayment is the admin confirmation that money actually arrived. It
// moves the order into fulfilment in the same transaction.
func (s *Service) VerifyPayment(ctx context.Context, orderID string) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Payment.Status != PaymentPending {
			return ErrAlreadyVerified
		}
		if o.Payment.TransactionID == "" {
			return ErrNotPendingPayment
		}
		if !CanTransition(o.Status, StatusProcessing) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusProcessing)
		}

		now := s.now().UTC()
		if err := tx.MarkVerified(ctx, orderID, now); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, orderID, StatusProcessing); err != nil {
			return err
		}
		update := ShippingUpdate{Status: StatusProcessing, Date: now, Notes: "Payment verified by admin."}
		if err := tx.AppendShippingUpdate(ctx, orderID, update); err != nil {
			return err
		}

		o.Payment.Status = PaymentVerified
		o.Payment.VerifiedAt = &now
		o.Status = StatusProcessing
		o.ShippingUpdates = append(o.ShippingUpdates, update)
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment verified", slog.String("order_id", orderID))
	s.notifyCustomer(ctx, NotifyPaymentVerified, order)
	s.bump(ctx)
	return order, nil
}

// UpdateShippingStatus advances an order along the fulfilment graph.
func (s *Service) UpdateShippingStatus(ctx context.Context, orderID string, req UpdateStatusRequest) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, req.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, req.Status)
		}

		if err := tx.SetStatus(ctx, orderID, req.Status); err != nil {
			return err
		}
		update := ShippingUpdate{Status: req.Status, Date: s.now().UTC(), Notes: req.Notes}
		if err := tx.AppendShippingUpdate(ctx, orderID, update); err != nil {
			return err
		}

		o.Status = req.Status
		o.ShippingUpdates = append(o.ShippingUpdates, update)
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shipping status updated",
		slog.String("order_id", orderID), slog.String("status", string(req.Status)))

	kind := NotifyShippingUpdated
	if req.Status == StatusCancelled {
		kind = NotifyOrderCancelled
		s.bump(ctx)
	}
	s.notifyCustomer(ctx, kind, order)
	return order, nil
}

// Cancel is the customer-side cancellation. Stock already reserved stays
// reserved; restocking is a manual back-office decision.
func (s *Service) Cancel(ctx context.Context, userID int64, orderID string) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOwner
		}
		if o.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if !Cancellable(o.Status) {
			return ErrNotCancellable
		}

		if err := tx.SetStatus(ctx, orderID, StatusCancelled); err != nil {
			return err
		}
		update := ShippingUpdate{Status: StatusCancelled, Date: s.now().UTC(), Notes: "Cancelled by customer."}
		if err := tx.AppendShippingUpdate(ctx, orderID, update); err != nil {
			return err
		}

		o.Status = StatusCancelled
		o.ShippingUpdates = append(o.ShippingUpdates, update)
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled by customer", slog.String("order_id", orderID))
	s.notifyCustomer(ctx, NotifyOrderCancelled, order)
	s.bump(ctx)
	return order, nil
}

// GetForUser returns one order, enforcing ownership.
func (s *Service) GetForUser(ctx context.Context, userID int64, orderID string) (*Order, error) {
	order, err := s.repo.Get(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	return order, nil
}

// AdminGet returns one order without ownership checks.
func (s *Service) AdminGet(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.Get(ctx, orderID, true)
}

// ListForUser returns a customer's order history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.repo.ListForUser(ctx, userID)
}

// ListPendingVerification returns submitted-but-unverified payments for the
// admin verification queue.
func (s *Service) ListPendingVerification(ctx context.Context) ([]Order, error) {
	return s.repo.ListPendingVerification(ctx)
}

// List returns a filtered admin listing.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	return s.repo.List(ctx, filter)
}

// Track returns the public tracking projection of an order.
func (s *Service) Track(ctx context.Context, orderID string) (*TrackingView, error) {
	order, err := s.repo.Get(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	view := order.Track()
	return &view, nil
}

// Instructions tells a customer how to settle a still-pending payment.
func (s *Service) Instructions(ctx context.Context, userID int64, orderID string) (*PaymentInstructions, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status != PaymentPending || order.Payment.Method == MethodCOD {
		return nil, ErrNotPendingPayment
	}

	instr := &PaymentInstructions{
		OrderID: order.OrderID,
		Method:  order.Payment.Method,
		Amount:  order.Payment.Amount,
	}
	switch {
	case MFSMethods[order.Payment.Method]:
		receiver := s.receiverNumbers[order.Payment.Method]
		instr.ReceiverNumber = receiver
		instr.QRPayload = fmt.Sprintf("%s://pay?receiver=%s&amount=%.2f&ref=%s",
			order.Payment.Method, receiver, order.Payment.Amount, order.OrderID)
	case order.Payment.Method == MethodBank:
		bank := s.bank
		instr.BankDetails = &bank
	}
	return instr, nil
}

// SoftDelete hides an order from customer views and dashboard aggregates.
func (s *Service) SoftDelete(ctx context.Context, orderID string) error {
	if err := s.repo.SoftDelete(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("order soft deleted", slog.String("order_id", orderID))
	s.bump(ctx)
	return nil
}

func (s *Service) notifyCustomer(ctx context.Context, kind NotificationKind, order *Order) {
	customer, err := s.users.Get(ctx, order.UserID, true)
	if err != nil {
		s.logger.Warn("notification skipped: customer lookup failed",
			slog.String("order_id", order.OrderID), slog.Any("error", err))
		return
	}
	s.notifier.Notify(ctx, kind, order, customer)
}

func (s *Service) bump(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}
