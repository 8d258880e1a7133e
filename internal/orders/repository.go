package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexcartbd/nexcart/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository is the order ledger's persistence boundary. Mutations that must
// be atomic with stock movements run inside WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	Get(ctx context.Context, orderID string, includeDeleted bool) (*Order, error)
	ListForUser(ctx context.Context, userID int64) ([]Order, error)
	ListPendingVerification(ctx context.Context) ([]Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	SoftDelete(ctx context.Context, orderID string) error
	CountAll(ctx context.Context) (int64, error)
}

// TxRepository is the transactional slice of the ledger.
type TxRepository interface {
	GetForUpdate(ctx context.Context, orderID string) (*Order, error)
	Insert(ctx context.Context, o *Order) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	ExistsOrderID(ctx context.Context, orderID string) (bool, error)
	DecrementStock(ctx context.Context, productID, qty int64) (bool, error)
	UpdatePaymentSubmission(ctx context.Context, orderID, transactionID, senderNumber string, at time.Time) error
	MarkVerified(ctx context.Context, orderID string, at time.Time) error
	SetStatus(ctx context.Context, orderID string, status Status) error
	AppendShippingUpdate(ctx context.Context, orderID string, update ShippingUpdate) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const orderColumns = `o.id, o.order_id, o.user_id,
	o.ship_full_name, o.ship_phone, o.ship_address, o.ship_city, o.ship_zip,
	o.subtotal, o.delivery_charge, o.total_amount, o.total_buy_amount, o.shipping_cost,
	o.payment_method, o.transaction_id, o.receiver_number, o.sender_number, o.payment_amount,
	o.payment_status, o.payment_submitted_at, o.payment_verified_at,
	o.status, o.is_deleted, o.created_at, o.updated_at`

func (r *repository) Get(ctx context.Context, orderID string, includeDeleted bool) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o WHERE o.order_id = $1`, orderColumns)
	if !includeDeleted {
		query += ` AND NOT o.is_deleted`
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, r.pool, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM orders o WHERE o.user_id = $1 AND NOT o.is_deleted ORDER BY o.created_at DESC`,
		orderColumns)
	return r.queryOrders(ctx, query, userID)
}

func (r *repository) ListPendingVerification(ctx context.Context) ([]Order, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM orders o
		 WHERE o.payment_status = 'Pending' AND o.transaction_id IS NOT NULL AND NOT o.is_deleted
		 ORDER BY o.payment_submitted_at ASC`,
		orderColumns)
	return r.queryOrders(ctx, query)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if !filter.IncludeDeleted {
		conditions = append(conditions, "NOT o.is_deleted")
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = $%d", argPos))
		args = append(args, *filter.PaymentStatus)
		argPos++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argPos))
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at < $%d", argPos))
		args = append(args, *filter.To)
		argPos++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM orders o %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	list, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) SoftDelete(ctx context.Context, orderID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET is_deleted = TRUE, updated_at = NOW() WHERE order_id = $1 AND NOT is_deleted`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("orders: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE NOT is_deleted`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("orders: count all: %w", err)
	}
	return count, nil
}

func (r *repository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orders: query: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := loadChildren(ctx, r.pool, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetForUpdate(ctx context.Context, orderID string) (*Order, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM orders o WHERE o.order_id = $1 AND NOT o.is_deleted FOR UPDATE`,
		orderColumns)
	o, err := scanOrder(t.tx.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, t.tx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *txRepository) Insert(ctx context.Context, o *Order) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (order_id, user_id,
			ship_full_name, ship_phone, ship_address, ship_city, ship_zip,
			subtotal, delivery_charge, total_amount, total_buy_amount, shipping_cost,
			payment_method, transaction_id, receiver_number, sender_number, payment_amount,
			payment_status, payment_submitted_at, payment_verified_at, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id, created_at, updated_at`,
		o.OrderID, o.UserID,
		o.ShippingAddress.FullName, o.ShippingAddress.Phone, o.ShippingAddress.Address,
		o.ShippingAddress.City, textArg(o.ShippingAddress.ZipCode),
		o.Subtotal, o.DeliveryCharge, o.TotalAmount, o.TotalBuyAmount, o.ShippingCost,
		o.Payment.Method, textArg(o.Payment.TransactionID), textArg(o.Payment.ReceiverNumber),
		textArg(o.Payment.SenderNumber),
		o.Payment.Amount, o.Payment.Status, timeArg(o.Payment.SubmittedAt), timeArg(o.Payment.VerifiedAt),
		o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "transaction") {
				return ErrDuplicateTransaction
			}
			// A concurrent checkout committed the same candidate after our
			// pre-check; the caller regenerates and retries.
			return fmt.Errorf("%w (%s)", ErrOrderIDCollision, o.OrderID)
		}
		return fmt.Errorf("orders: insert: %w", err)
	}

	for _, item := range o.Items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (order_ref, product_id, title, quantity, unit_price, unit_cost, color, size)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			o.ID, item.ProductID, item.Title, item.Quantity, item.UnitPrice, item.UnitCost,
			textArg(item.Color), textArg(item.Size),
		)
		if err != nil {
			return fmt.Errorf("orders: insert item: %w", err)
		}
	}
	for _, update := range o.ShippingUpdates {
		if err := t.appendUpdate(ctx, o.ID, update); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("orders: count created: %w", err)
	}
	return count, nil
}

func (t *txRepository) ExistsOrderID(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, orderID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("orders: exists order id: %w", err)
	}
	return exists, nil
}

// DecrementStock reserves stock inside the order transaction. The conditional
// WHERE makes the last unit go to exactly one of two racing checkouts.
func (t *txRepository) DecrementStock(ctx context.Context, productID, qty int64) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2 AND status = 'active' AND NOT is_deleted`,
		productID, qty,
	)
	if err != nil {
		return false, fmt.Errorf("orders: decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txRepository) UpdatePaymentSubmission(ctx context.Context, orderID, transactionID, senderNumber string, at time.Time) error {
	// receiver_number stays what the shop told the customer to pay into;
	// the customer's own wallet goes into sender_number.
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET transaction_id = $2, sender_number = NULLIF($3, ''),
			payment_submitted_at = $4, updated_at = NOW()
		WHERE order_id = $1`,
		orderID, transactionID, senderNumber, at,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("orders: submit payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) MarkVerified(ctx context.Context, orderID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'Verified', payment_verified_at = $2, updated_at = NOW()
		WHERE order_id = $1`,
		orderID, at,
	)
	if err != nil {
		return fmt.Errorf("orders: mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) SetStatus(ctx context.Context, orderID string, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE order_id = $1`,
		orderID, status,
	)
	if err != nil {
		return fmt.Errorf("orders: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) AppendShippingUpdate(ctx context.Context, orderID string, update ShippingUpdate) error {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM orders WHERE order_id = $1`, orderID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("orders: resolve order: %w", err)
	}
	return t.appendUpdate(ctx, id, update)
}

func (t *txRepository) appendUpdate(ctx context.Context, orderRef int64, update ShippingUpdate) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_shipping_updates (order_ref, status, date, notes)
		VALUES ($1,$2,$3,$4)`,
		orderRef, update.Status, update.Date, textArg(update.Notes),
	)
	if err != nil {
		return fmt.Errorf("orders: append shipping update: %w", err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadChildren(ctx context.Context, q querier, o *Order) error {
	rows, err := q.Query(ctx, `
		SELECT product_id, title, quantity, unit_price, unit_cost, color, size
		FROM order_items WHERE order_ref = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("orders: load items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		var color, size pgtype.Text
		if err := rows.Scan(&item.ProductID, &item.Title, &item.Quantity,
			&item.UnitPrice, &item.UnitCost, &color, &size); err != nil {
			return fmt.Errorf("orders: scan item: %w", err)
		}
		item.Color, item.Size = color.String, size.String
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	updates, err := q.Query(ctx, `
		SELECT status, date, notes
		FROM order_shipping_updates WHERE order_ref = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("orders: load shipping updates: %w", err)
	}
	defer updates.Close()
	for updates.Next() {
		var u ShippingUpdate
		var notes pgtype.Text
		if err := updates.Scan(&u.Status, &u.Date, &notes); err != nil {
			return fmt.Errorf("orders: scan shipping update: %w", err)
		}
		u.Notes = notes.String
		o.ShippingUpdates = append(o.ShippingUpdates, u)
	}
	return updates.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var zip, transactionID, receiverNumber, senderNumber pgtype.Text
	var submittedAt, verifiedAt pgtype.Timestamptz

	err := row.Scan(
		&o.ID, &o.OrderID, &o.UserID,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Phone, &o.ShippingAddress.Address,
		&o.ShippingAddress.City, &zip,
		&o.Subtotal, &o.DeliveryCharge, &o.TotalAmount, &o.TotalBuyAmount, &o.ShippingCost,
		&o.Payment.Method, &transactionID, &receiverNumber, &senderNumber, &o.Payment.Amount,
		&o.Payment.Status, &submittedAt, &verifiedAt,
		&o.Status, &o.IsDeleted, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("orders: scan order: %w", err)
	}

	o.ShippingAddress.ZipCode = zip.String
	o.Payment.TransactionID = transactionID.String
	o.Payment.ReceiverNumber = receiverNumber.String
	o.Payment.SenderNumber = senderNumber.String
	if submittedAt.Valid {
		t := submittedAt.Time
		o.Payment.SubmittedAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		o.Payment.VerifiedAt = &t
	}
	return &o, nil
}

func textArg(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func timeArg(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
