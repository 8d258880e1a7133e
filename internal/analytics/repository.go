package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Totals are the money aggregates over verified, non-deleted orders. Profit
// is derived at read time, never stored.
type Totals struct {
	Revenue      float64
	GoodsCost    float64
	ShippingCost float64
}

// Counts are the dashboard headcounts.
type Counts struct {
	Orders              int64
	PendingVerification int64
	Customers           int64
	ActiveProducts      int64
}

// Repository computes dashboard aggregates straight from PostgreSQL.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	Counts(ctx context.Context) (Counts, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Totals sums only orders whose payment an admin actually verified. Soft
// deleted orders never count.
func (r *repository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(total_buy_amount), 0),
		       COALESCE(SUM(shipping_cost), 0)
		FROM orders
		WHERE payment_status = 'Verified' AND NOT is_deleted`,
	).Scan(&t.Revenue, &t.GoodsCost, &t.ShippingCost)
	if err != nil {
		return Totals{}, fmt.Errorf("analytics: totals: %w", err)
	}
	return t, nil
}

func (r *repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE NOT is_deleted),
			(SELECT COUNT(*) FROM orders
				WHERE payment_status = 'Pending' AND transaction_id IS NOT NULL AND NOT is_deleted),
			(SELECT COUNT(*) FROM users WHERE role = 'customer' AND NOT is_deleted),
			(SELECT COUNT(*) FROM products WHERE status = 'active' AND NOT is_deleted)`,
	).Scan(&c.Orders, &c.PendingVerification, &c.Customers, &c.ActiveProducts)
	if err != nil {
		return Counts{}, fmt.Errorf("analytics: counts: %w", err)
	}
	return c, nil
}
