package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository abstracts catalogue persistence for the service and the order
// ledger's pricing resolver.
type Repository interface {
	Get(ctx context.Context, id int64, includeArchived bool) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	GetBySupplierID(ctx context.Context, provider, apiID string) (*Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, int, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, p Product) error
	SetStatus(ctx context.Context, id int64, status ProductStatus) error
	SoftDelete(ctx context.Context, id int64) error
	DecrementStockIfAvailable(ctx context.Context, id int64, qty int64) (bool, error)
	RestoreStock(ctx context.Context, id int64, qty int64) error
	CountActive(ctx context.Context) (int64, error)
}

// ListRequest filters catalogue listings.
type ListRequest struct {
	Status          *ProductStatus
	Search          string
	IncludeArchived bool
	IncludeDeleted  bool
	Limit           int
	Offset          int
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, code, title_en, title_bn, slug, description_en,
	buy_price, price, sale_price, stock, images, colors, sizes, status,
	supplier_provider, supplier_product_id, supplier_link,
	is_deleted, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64, includeArchived bool) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 AND NOT is_deleted`, productColumns)
	if !includeArchived {
		query += ` AND status <> 'archived'`
	}
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE code = $1 AND NOT is_deleted AND status <> 'archived'`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, code))
}

func (r *repository) GetBySupplierID(ctx context.Context, provider, apiID string) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE supplier_provider = $1 AND supplier_product_id = $2 AND NOT is_deleted`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, provider, apiID))
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if !req.IncludeDeleted {
		conditions = append(conditions, "NOT is_deleted")
	}
	if !req.IncludeArchived {
		conditions = append(conditions, "status <> 'archived'")
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title_en ILIKE $%d OR code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count products: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (code, title_en, title_bn, slug, description_en,
			buy_price, price, sale_price, stock, images, colors, sizes, status,
			supplier_provider, supplier_product_id, supplier_link)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id`,
		p.Code, p.TitleEN, p.TitleBN, p.Slug, p.DescriptionEN,
		p.BuyPrice, p.Price, salePriceArg(p.SalePrice), p.Stock,
		p.Images, p.Colors, p.Sizes, p.Status,
		supplierField(p.SupplierRef, func(s *SupplierRef) string { return s.Provider }),
		supplierField(p.SupplierRef, func(s *SupplierRef) string { return s.ProductAPIID }),
		supplierField(p.SupplierRef, func(s *SupplierRef) string { return s.OriginalLink }),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateCode
		}
		return 0, fmt.Errorf("catalog: create product: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET title_en = $2, title_bn = $3, slug = $4, description_en = $5,
			buy_price = $6, price = $7, sale_price = $8, stock = $9,
			images = $10, colors = $11, sizes = $12, status = $13,
			updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		p.ID, p.TitleEN, p.TitleBN, p.Slug, p.DescriptionEN,
		p.BuyPrice, p.Price, salePriceArg(p.SalePrice), p.Stock,
		p.Images, p.Colors, p.Sizes, p.Status,
	)
	if err != nil {
		return fmt.Errorf("catalog: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status ProductStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("catalog: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id,
	)
	if err != nil {
		return fmt.Errorf("catalog: soft delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStockIfAvailable atomically reserves qty units. The WHERE guard is
// what makes concurrent last-unit orders safe: only one of two racing
// decrements can match stock >= qty.
func (r *repository) DecrementStockIfAvailable(ctx context.Context, id int64, qty int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND stock >= $2 AND status = 'active' AND NOT is_deleted`,
		id, qty,
	)
	if err != nil {
		return false, fmt.Errorf("catalog: decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, id int64, qty int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
		id, qty,
	)
	if err != nil {
		return fmt.Errorf("catalog: restore stock: %w", err)
	}
	return nil
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE status = 'active' AND NOT is_deleted`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("catalog: count active: %w", err)
	}
	return count, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var titleBN, descriptionEN pgtype.Text
	var salePrice pgtype.Float8
	var provider, apiID, link pgtype.Text

	err := row.Scan(
		&p.ID, &p.Code, &p.TitleEN, &titleBN, &p.Slug, &descriptionEN,
		&p.BuyPrice, &p.Price, &salePrice, &p.Stock,
		&p.Images, &p.Colors, &p.Sizes, &p.Status,
		&provider, &apiID, &link,
		&p.IsDeleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: scan product: %w", err)
	}

	if titleBN.Valid {
		p.TitleBN = titleBN.String
	}
	if descriptionEN.Valid {
		p.DescriptionEN = descriptionEN.String
	}
	if salePrice.Valid {
		val := salePrice.Float64
		p.SalePrice = &val
	}
	if provider.Valid && apiID.Valid {
		p.SupplierRef = &SupplierRef{Provider: provider.String, ProductAPIID: apiID.String}
		if link.Valid {
			p.SupplierRef.OriginalLink = link.String
		}
	}
	return &p, nil
}

func salePriceArg(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func supplierField(ref *SupplierRef, pick func(*SupplierRef) string) pgtype.Text {
	if ref == nil {
		return pgtype.Text{}
	}
	val := pick(ref)
	if val == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: val, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
