package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexcartbd/nexcart/internal/platform/httpx"
)

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = fmt.Errorf("%w: user", httpx.ErrNotFound)

// Repository reads user accounts from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, username, full_name, phone, role, is_deleted, created_at, updated_at`

// Get returns a user by id. Soft-deleted users are only returned when
// includeDeleted is set.
func (r *Repository) Get(ctx context.Context, id int64, includeDeleted bool) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	if !includeDeleted {
		query += ` AND NOT is_deleted`
	}
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND NOT is_deleted`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

// CountCustomers returns the number of active customer accounts.
func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1 AND NOT is_deleted`, RoleCustomer,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("users: count customers: %w", err)
	}
	return count, nil
}

func (r *Repository) scanOne(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.Phone, &u.Role, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return &u, nil
}
