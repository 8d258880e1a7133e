package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexcartbd/nexcart/internal/catalog"
	"github.com/nexcartbd/nexcart/internal/platform/httpx"
	"github.com/nexcartbd/nexcart/internal/users"
)

// memoryStore implements Repository plus TxRepository over maps, with
// snapshot-and-restore giving WithTx real rollback semantics.
type memoryStore struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[string]*Order
	stock   map[int64]int64
	txnUsed map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:  1,
		orders:  map[string]*Order{},
		stock:   map[int64]int64{},
		txnUsed: map[string]string{},
	}
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	cp.ShippingUpdates = append([]ShippingUpdate(nil), o.ShippingUpdates...)
	return &cp
}

func (m *memoryStore) snapshot() (map[string]*Order, map[int64]int64, map[string]string, int64) {
	orders := make(map[string]*Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = copyOrder(v)
	}
	stock := make(map[int64]int64, len(m.stock))
	for k, v := range m.stock {
		stock[k] = v
	}
	txn := make(map[string]string, len(m.txnUsed))
	for k, v := range m.txnUsed {
		txn[k] = v
	}
	return orders, stock, txn, m.nextID
}

func (m *memoryStore) WithTx(_ context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders, stock, txn, nextID := m.snapshot()
	if err := fn(context.Background(), (*memoryTx)(m)); err != nil {
		m.orders, m.stock, m.txnUsed, m.nextID = orders, stock, txn, nextID
		return err
	}
	return nil
}

func (m *memoryStore) Get(_ context.Context, orderID string, includeDeleted bool) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || (o.IsDeleted && !includeDeleted) {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *memoryStore) ListForUser(_ context.Context, userID int64) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []Order
	for _, o := range m.orders {
		if o.UserID == userID && !o.IsDeleted {
			list = append(list, *copyOrder(o))
		}
	}
	return list, nil
}

func (m *memoryStore) ListPendingVerification(context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []Order
	for _, o := range m.orders {
		if o.Payment.Status == PaymentPending && o.Payment.TransactionID != "" && !o.IsDeleted {
			list = append(list, *copyOrder(o))
		}
	}
	return list, nil
}

func (m *memoryStore) List(_ context.Context, filter ListFilter) ([]Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []Order
	for _, o := range m.orders {
		if o.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && o.Payment.Status != *filter.PaymentStatus {
			continue
		}
		list = append(list, *copyOrder(o))
	}
	return list, len(list), nil
}

func (m *memoryStore) SoftDelete(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.IsDeleted {
		return ErrNotFound
	}
	o.IsDeleted = true
	return nil
}

func (m *memoryStore) CountAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if !o.IsDeleted {
			n++
		}
	}
	return n, nil
}

type memoryTx memoryStore

func (t *memoryTx) GetForUpdate(_ context.Context, orderID string) (*Order, error) {
	o, ok := t.orders[orderID]
	if !ok || o.IsDeleted {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (t *memoryTx) Insert(_ context.Context, o *Order) error {
	if _, exists := t.orders[o.OrderID]; exists {
		return fmt.Errorf("%w (%s)", ErrOrderIDCollision, o.OrderID)
	}
	if o.Payment.TransactionID != "" {
		if _, used := t.txnUsed[o.Payment.TransactionID]; used {
			return ErrDuplicateTransaction
		}
		t.txnUsed[o.Payment.TransactionID] = o.OrderID
	}
	o.ID = t.nextID
	t.nextID++
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	t.orders[o.OrderID] = copyOrder(o)
	return nil
}

func (t *memoryTx) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for _, o := range t.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) ExistsOrderID(_ context.Context, orderID string) (bool, error) {
	_, ok := t.orders[orderID]
	return ok, nil
}

func (t *memoryTx) DecrementStock(_ context.Context, productID, qty int64) (bool, error) {
	if t.stock[productID] < qty {
		return false, nil
	}
	t.stock[productID] -= qty
	return true, nil
}

func (t *memoryTx) UpdatePaymentSubmission(_ context.Context, orderID, transactionID, senderNumber string, at time.Time) error {
	o, ok := t.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if owner, used := t.txnUsed[transactionID]; used && owner != orderID {
		return ErrDuplicateTransaction
	}
	t.txnUsed[transactionID] = orderID
	o.Payment.TransactionID = transactionID
	if senderNumber != "" {
		o.Payment.SenderNumber = senderNumber
	}
	submittedAt := at
	o.Payment.SubmittedAt = &submittedAt
	return nil
}

func (t *memoryTx) MarkVerified(_ context.Context, orderID string, at time.Time) error {
	o, ok := t.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Payment.Status = PaymentVerified
	verifiedAt := at
	o.Payment.VerifiedAt = &verifiedAt
	return nil
}

func (t *memoryTx) SetStatus(_ context.Context, orderID string, status Status) error {
	o, ok := t.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *memoryTx) AppendShippingUpdate(_ context.Context, orderID string, update ShippingUpdate) error {
	o, ok := t.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.ShippingUpdates = append(o.ShippingUpdates, update)
	return nil
}

type memoryCatalog struct {
	mu       sync.Mutex
	products map[int64]*catalog.Product
}

func (c *memoryCatalog) Get(_ context.Context, id int64, includeArchived bool) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || p.IsDeleted {
		return nil, catalog.ErrNotFound
	}
	if !includeArchived && p.Status == catalog.ProductStatusArchived {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memoryUsers struct {
	users map[int64]*users.User
}

func (m *memoryUsers) Get(_ context.Context, id int64, _ bool) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

type recordedNotification struct {
	kind  NotificationKind
	order string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedNotification
}

func (n *recordingNotifier) Notify(_ context.Context, kind NotificationKind, order *Order, _ *users.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedNotification{kind: kind, order: order.OrderID})
}

type fixture struct {
	store    *memoryStore
	catalog  *memoryCatalog
	notifier *recordingNotifier
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRepo(t, nil)
}

// newFixtureWithRepo lets a test interpose on the repository, e.g. to make
// inserts fail the way the database would under a concurrent checkout.
func newFixtureWithRepo(t *testing.T, wrap func(Repository) Repository) *fixture {
	t.Helper()
	store := newMemoryStore()
	cat := &memoryCatalog{products: map[int64]*catalog.Product{
		1: {ID: 1, Code: "P-1", TitleEN: "Cotton Panjabi", BuyPrice: 420, Price: 490, Stock: 10, Status: catalog.ProductStatusActive},
		2: {ID: 2, Code: "P-2", TitleEN: "Silk Saree", BuyPrice: 1800, Price: 2070, Stock: 5, Status: catalog.ProductStatusActive},
		3: {ID: 3, Code: "P-3", TitleEN: "Retired Shirt", BuyPrice: 200, Price: 240, Stock: 4, Status: catalog.ProductStatusArchived},
	}}
	for id, p := range cat.products {
		store.stock[id] = p.Stock
	}
	accounts := &memoryUsers{users: map[int64]*users.User{
		7: {ID: 7, Email: "farhan@example.com", FullName: "Farhan Ahmed", Role: users.RoleCustomer},
		8: {ID: 8, Email: "nusrat@example.com", FullName: "Nusrat Jahan", Role: users.RoleCustomer},
	}}
	notifier := &recordingNotifier{}

	var repo Repository = store
	if wrap != nil {
		repo = wrap(store)
	}
	svc := NewService(ServiceParams{
		Repo:     repo,
		Users:    accounts,
		Resolver: NewResolver(cat),
		Notifier: notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ReceiverNumbers: map[PaymentMethod]string{
			MethodBkash:  "01711000001",
			MethodNagad:  "01711000002",
			MethodRocket: "01711000003",
		},
		Bank: BankDetails{
			BankName:      "City Bank",
			BranchName:    "Gulshan",
			AccountName:   "NexCart BD",
			AccountNumber: "1234567890",
		},
	})
	return &fixture{store: store, catalog: cat, notifier: notifier, service: svc}
}

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName: "Farhan Ahmed",
		Phone:    "01712345678",
		Address:  "House 12, Road 5, Dhanmondi",
		City:     "Dhaka",
		ZipCode:  "1209",
	}
}

func checkoutRequest(method PaymentMethod, declared float64) CreateOrderRequest {
	return CreateOrderRequest{
		Items:           []CreateOrderItem{{ProductID: 1, Quantity: 2, Color: "White", Size: "L"}},
		ShippingAddress: validAddress(),
		PaymentMethod:   method,
		DeliveryCharge:  60,
		DeclaredTotal:   declared,
	}
}

func TestCreateOrderServerSidePricing(t *testing.T) {
	f := newFixture(t)

	// 2 x 490 + 60 delivery.
	order, err := f.service.Create(context.Background(), 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	require.Regexp(t, `^NCBD-\d{8}-0001$`, order.OrderID)
	require.Equal(t, StatusAwaitingVerification, order.Status)
	require.Equal(t, PaymentPending, order.Payment.Status)
	require.Equal(t, 980.0, order.Subtotal)
	require.Equal(t, 1040.0, order.TotalAmount)
	require.Equal(t, 840.0, order.TotalBuyAmount)
	require.Equal(t, "01711000001", order.Payment.ReceiverNumber)

	require.Len(t, order.ShippingUpdates, 2)
	require.Equal(t, StatusOrderReceived, order.ShippingUpdates[0].Status)
	require.Equal(t, StatusAwaitingVerification, order.ShippingUpdates[1].Status)
	require.Equal(t, order.Status, order.ShippingUpdates[len(order.ShippingUpdates)-1].Status)

	// Stock was reserved.
	require.Equal(t, int64(8), f.store.stock[1])

	require.Len(t, f.notifier.events, 1)
	require.Equal(t, NotifyOrderCreated, f.notifier.events[0].kind)
}

func TestCreateOrderRejectsTamperedTotal(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), 7, checkoutRequest(MethodBkash, 500))
	require.ErrorIs(t, err, ErrAmountMismatch)

	// Nothing was reserved.
	require.Equal(t, int64(10), f.store.stock[1])
	count, err := f.store.CountAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := checkoutRequest(MethodBkash, 1040)
	req.Items = nil
	_, err := f.service.Create(ctx, 7, req)
	require.ErrorIs(t, err, ErrEmptyItems)

	req = checkoutRequest("paypal", 1040)
	_, err = f.service.Create(ctx, 7, req)
	require.ErrorIs(t, err, ErrUnknownMethod)

	req = checkoutRequest(MethodBkash, 1040)
	req.ShippingAddress.Phone = " "
	_, err = f.service.Create(ctx, 7, req)
	require.ErrorIs(t, err, ErrAddressIncomplete)

	req = checkoutRequest(MethodBkash, 1040)
	req.Items[0].Quantity = 0
	_, err = f.service.Create(ctx, 7, req)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	req = checkoutRequest(MethodBkash, 980)
	req.DeliveryCharge = -60
	_, err = f.service.Create(ctx, 7, req)
	require.ErrorIs(t, err, ErrInvalidCharge)

	_, err = f.service.Create(ctx, 999, checkoutRequest(MethodBkash, 1040))
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCreateOrderArchivedProductInvisible(t *testing.T) {
	f := newFixture(t)
	req := CreateOrderRequest{
		Items:           []CreateOrderItem{{ProductID: 3, Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   MethodBkash,
		DeclaredTotal:   240,
	}
	_, err := f.service.Create(context.Background(), 7, req)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCreateOrderInsufficientStockAbortsAll(t *testing.T) {
	f := newFixture(t)
	req := CreateOrderRequest{
		Items: []CreateOrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 6}, // only 5 available
		},
		ShippingAddress: validAddress(),
		PaymentMethod:   MethodBkash,
		DeclaredTotal:   2*490 + 6*2070,
	}
	_, err := f.service.Create(context.Background(), 7, req)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The first line's reservation rolled back with the transaction.
	require.Equal(t, int64(10), f.store.stock[1])
	require.Equal(t, int64(5), f.store.stock[2])
}

func TestCreateOrderCashOnDelivery(t *testing.T) {
	f := newFixture(t)

	order, err := f.service.Create(context.Background(), 7, checkoutRequest(MethodCOD, 1040))
	require.NoError(t, err)

	require.Equal(t, StatusProcessing, order.Status)
	require.Equal(t, PaymentVerified, order.Payment.Status)
	require.NotNil(t, order.Payment.VerifiedAt)
	require.Len(t, order.ShippingUpdates, 2)
	require.Equal(t, StatusProcessing, order.ShippingUpdates[1].Status)
	require.Equal(t, "Cash on Delivery", order.ShippingUpdates[1].Notes)
}

func TestOrderIDSequencePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)
	second, err := f.service.Create(ctx, 8, checkoutRequest(MethodNagad, 1040))
	require.NoError(t, err)

	day := time.Now().UTC().Format("20060102")
	require.Equal(t, "NCBD-"+day+"-0001", first.OrderID)
	require.Equal(t, "NCBD-"+day+"-0002", second.OrderID)
}

func TestOrderIDSkipsCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Occupy the slot the next checkout would naturally take.
	day, _ := DayRange(time.Now())
	taken := &Order{
		OrderID: FormatOrderID(day, 1), UserID: 8,
		Payment: PaymentDetails{Method: MethodBkash, Status: PaymentPending},
		Status:  StatusAwaitingVerification,
	}
	require.NoError(t, f.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, taken)
	}))

	// CountCreatedBetween now reports 1, so the natural candidate is -0002.
	// Force a collision there too and watch the retry loop walk past it.
	taken2 := &Order{
		OrderID: FormatOrderID(day, 2), UserID: 8,
		Payment: PaymentDetails{Method: MethodBkash, Status: PaymentPending},
		Status:  StatusAwaitingVerification,
	}
	require.NoError(t, f.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, taken2)
	}))

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)
	require.Equal(t, FormatOrderID(day, 3), order.OrderID)
}

// insertCollideStore simulates two overlapping checkouts: the ExistsOrderID
// pre-check reports the candidate free because the competitor's insert is
// uncommitted, then the unique index fires at commit time.
type insertCollideStore struct {
	Repository
	collisions int
}

func (s *insertCollideStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return s.Repository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return fn(ctx, &insertCollideTx{TxRepository: tx, store: s})
	})
}

type insertCollideTx struct {
	TxRepository
	store *insertCollideStore
}

func (t *insertCollideTx) Insert(ctx context.Context, o *Order) error {
	if t.store.collisions > 0 {
		t.store.collisions--
		return fmt.Errorf("%w (%s)", ErrOrderIDCollision, o.OrderID)
	}
	return t.TxRepository.Insert(ctx, o)
}

func TestCreateRetriesWhenOrderIDRaces(t *testing.T) {
	var collide *insertCollideStore
	f := newFixtureWithRepo(t, func(r Repository) Repository {
		collide = &insertCollideStore{Repository: r, collisions: 2}
		return collide
	})

	order, err := f.service.Create(context.Background(), 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)
	require.NotEmpty(t, order.OrderID)
	require.Zero(t, collide.collisions)

	// Each aborted attempt rolled back its reservation; only the winning
	// transaction holds stock.
	require.Equal(t, int64(8), f.store.stock[1])
	count, err := f.store.CountAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Len(t, f.notifier.events, 1)
}

func TestCreateOrderIDRetriesExhausted(t *testing.T) {
	f := newFixtureWithRepo(t, func(r Repository) Repository {
		return &insertCollideStore{Repository: r, collisions: maxIDAttempts}
	})

	_, err := f.service.Create(context.Background(), 7, checkoutRequest(MethodBkash, 1040))
	require.ErrorIs(t, err, ErrIDGenerationExhausted)
	require.ErrorIs(t, err, httpx.ErrConflict)

	// All five attempts rolled back cleanly.
	require.Equal(t, int64(10), f.store.stock[1])
	count, err := f.store.CountAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	require.Empty(t, f.notifier.events)
}

func TestConcurrentCheckoutLastUnit(t *testing.T) {
	f := newFixture(t)
	f.store.stock[1] = 1
	f.catalog.mu.Lock()
	f.catalog.products[1].Stock = 1
	f.catalog.mu.Unlock()

	req := CreateOrderRequest{
		Items:           []CreateOrderItem{{ProductID: 1, Quantity: 1}},
		ShippingAddress: validAddress(),
		PaymentMethod:   MethodCOD,
		DeliveryCharge:  60,
		DeclaredTotal:   550,
	}

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), 7, req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, outOfStock int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			// Resolver pre-check and transactional decrement both surface
			// the same sentinel.
			require.ErrorIs(t, err, ErrInsufficientStock)
			outOfStock++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, outOfStock)
	require.Equal(t, int64(0), f.store.stock[1])
}

func TestSnapshotSurvivesCatalogEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	f.catalog.mu.Lock()
	f.catalog.products[1].Price = 990
	f.catalog.products[1].BuyPrice = 900
	f.catalog.products[1].TitleEN = "Renamed"
	f.catalog.mu.Unlock()

	got, err := f.service.GetForUser(ctx, 7, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 490.0, got.Items[0].UnitPrice)
	require.Equal(t, 420.0, got.Items[0].UnitCost)
	require.Equal(t, "Cotton Panjabi", got.Items[0].Title)
	require.Equal(t, 1040.0, got.TotalAmount)

	// Profit is derived, never stored: 1040 - 840 - 0 shipping cost.
	require.Equal(t, 200.0, got.Profit())
}

func TestSubmitPaymentHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	updated, err := f.service.SubmitPayment(ctx, 7, order.OrderID, SubmitPaymentRequest{
		TransactionID: "TXN123", SenderNumber: "01712345678",
	})
	require.NoError(t, err)
	require.Equal(t, "TXN123", updated.Payment.TransactionID)
	require.NotNil(t, updated.Payment.SubmittedAt)
	require.Equal(t, PaymentPending, updated.Payment.Status)
	require.Equal(t, StatusAwaitingVerification, updated.Status)

	// The customer's wallet lands in SenderNumber; the shop's receiving
	// account from the instructions stays put.
	require.Equal(t, "01712345678", updated.Payment.SenderNumber)
	require.Equal(t, "01711000001", updated.Payment.ReceiverNumber)

	stored, err := f.service.GetForUser(ctx, 7, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, "01712345678", stored.Payment.SenderNumber)
	require.Equal(t, "01711000001", stored.Payment.ReceiverNumber)
}

func TestSubmitPaymentGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(ctx, 7, order.OrderID, SubmitPaymentRequest{})
	require.ErrorIs(t, err, ErrTransactionIDRequired)

	_, err = f.service.SubmitPayment(ctx, 8, order.OrderID, SubmitPaymentRequest{TransactionID: "TXN-X"})
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = f.service.SubmitPayment(ctx, 7, order.OrderID, SubmitPaymentRequest{TransactionID: "TXN123"})
	require.NoError(t, err)

	// A second submission is refused even with a fresh transaction id.
	_, err = f.service.SubmitPayment(ctx, 7, order.OrderID, SubmitPaymentRequest{TransactionID: "TXN456"})
	require.ErrorIs(t, err, ErrNotPendingPayment)

	// COD orders never accept submissions.
	cod, err := f.service.Create(ctx, 7, checkoutRequest(MethodCOD, 1040))
	require.NoError(t, err)
	_, err = f.service.SubmitPayment(ctx, 7, cod.OrderID, SubmitPaymentRequest{TransactionID: "TXN789"})
	require.ErrorIs(t, err, ErrNotPendingPayment)
}

func TestSubmitPaymentDuplicateTransactionID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)
	second, err := f.service.Create(ctx, 8, checkoutRequest(MethodNagad, 1040))
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(ctx, 7, first.OrderID, SubmitPaymentRequest{TransactionID: "TXN123"})
	require.NoError(t, err)

	_, err = f.service.SubmitPayment(ctx, 8, second.OrderID, SubmitPaymentRequest{TransactionID: "TXN123"})
	require.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestVerifyPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	// Verification requires a submitted transaction id.
	_, err = f.service.VerifyPayment(ctx, order.OrderID)
	require.ErrorIs(t, err, ErrNotPendingPayment)

	_, err = f.service.SubmitPayment(ctx, 7, order.OrderID, SubmitPaymentRequest{TransactionID: "TXN123"})
	require.NoError(t, err)

	verified, err := f.service.VerifyPayment(ctx, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, PaymentVerified, verified.Payment.Status)
	require.NotNil(t, verified.Payment.VerifiedAt)
	require.Equal(t, StatusProcessing, verified.Status)

	last := verified.ShippingUpdates[len(verified.ShippingUpdates)-1]
	require.Equal(t, StatusProcessing, last.Status)
	require.Equal(t, "Payment verified by admin.", last.Notes)

	_, err = f.service.VerifyPayment(ctx, order.OrderID)
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestShippingProgression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodCOD, 1040))
	require.NoError(t, err)

	for _, next := range []Status{StatusPackaging, StatusShipped, StatusInTransit, StatusOutForDelivery, StatusDelivered} {
		updated, err := f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: next})
		require.NoError(t, err, "transition to %s", next)
		require.Equal(t, next, updated.Status)
		require.Equal(t, next, updated.ShippingUpdates[len(updated.ShippingUpdates)-1].Status)
	}

	// Delivered is terminal.
	_, err = f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusProcessing})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestShippingIllegalJumps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	// Awaiting Verification cannot jump straight to Shipped.
	_, err = f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusShipped})
	require.ErrorIs(t, err, ErrInvalidTransition)

	// On Hold round-trips back into fulfilment.
	_, err = f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusOnHold, Notes: "Payment query"})
	require.NoError(t, err)
	resumed, err := f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusProcessing})
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, resumed.Status)
}

func TestCustomerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodCOD, 1040))
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, 8, order.OrderID)
	require.ErrorIs(t, err, ErrNotOwner)

	cancelled, err := f.service.Cancel(ctx, 7, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, "Cancelled by customer.", cancelled.ShippingUpdates[len(cancelled.ShippingUpdates)-1].Notes)

	// Stock stays reserved; restocking is manual.
	require.Equal(t, int64(8), f.store.stock[1])

	_, err = f.service.Cancel(ctx, 7, order.OrderID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancellationWindowCloses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodCOD, 1040))
	require.NoError(t, err)

	_, err = f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusPackaging})
	require.NoError(t, err)
	_, err = f.service.UpdateShippingStatus(ctx, order.OrderID, UpdateStatusRequest{Status: StatusShipped})
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, 7, order.OrderID)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestTrackingHidesFinancials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	view, err := f.service.Track(ctx, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, order.OrderID, view.OrderID)
	require.Equal(t, StatusAwaitingVerification, view.Status)
	require.Len(t, view.ShippingUpdates, 2)

	_, err = f.service.Track(ctx, "NCBD-20250101-9999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentInstructions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mfs, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	instr, err := f.service.Instructions(ctx, 7, mfs.OrderID)
	require.NoError(t, err)
	require.Equal(t, MethodBkash, instr.Method)
	require.Equal(t, "01711000001", instr.ReceiverNumber)
	require.Contains(t, instr.QRPayload, "receiver=01711000001")
	require.Contains(t, instr.QRPayload, mfs.OrderID)
	require.Nil(t, instr.BankDetails)

	bank, err := f.service.Create(ctx, 7, checkoutRequest(MethodBank, 1040))
	require.NoError(t, err)
	instr, err = f.service.Instructions(ctx, 7, bank.OrderID)
	require.NoError(t, err)
	require.Empty(t, instr.ReceiverNumber)
	require.NotNil(t, instr.BankDetails)
	require.Equal(t, "City Bank", instr.BankDetails.BankName)

	// Verified orders have nothing left to pay.
	_, err = f.service.SubmitPayment(ctx, 7, mfs.OrderID, SubmitPaymentRequest{TransactionID: "TXN123"})
	require.NoError(t, err)
	_, err = f.service.VerifyPayment(ctx, mfs.OrderID)
	require.NoError(t, err)
	_, err = f.service.Instructions(ctx, 7, mfs.OrderID)
	require.ErrorIs(t, err, ErrNotPendingPayment)
}

func TestSoftDeleteHidesFromCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, 7, checkoutRequest(MethodBkash, 1040))
	require.NoError(t, err)

	require.NoError(t, f.service.SoftDelete(ctx, order.OrderID))

	_, err = f.service.GetForUser(ctx, 7, order.OrderID)
	require.ErrorIs(t, err, ErrNotFound)

	// Admin views still see it.
	got, err := f.service.AdminGet(ctx, order.OrderID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted)

	require.ErrorIs(t, f.service.SoftDelete(ctx, order.OrderID), ErrNotFound)
}
