package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context, filter *ProductFilter, limit, page int32) ([]*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, productID string) error

	// Transactional inventory contract. These run under the coordinator's or
	// status service's transaction and must never be called with unguarded
	// writes outside one.
	GetVariantForCheckout(ctx context.Context, tx db.Tx, productID, size string) (*CheckoutVariant, error)
	ReserveStock(ctx context.Context, tx db.Tx, productID, size string, qty int) error
	Restock(ctx context.Context, tx db.Tx, productID, size string, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	query := `
		SELECT id, name, slug, description, price, category, gender, status,
		       image_url, total_stock, sold, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Category,
		&p.Gender, &p.Status, &p.ImageURL, &p.TotalStock, &p.Sold,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	variants, err := r.loadVariants(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	return &p, nil
}

func (r *repository) loadVariants(ctx context.Context, productID string) ([]Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, size, stock, sold
		FROM variants
		WHERE product_id = $1
		ORDER BY size
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ProductID, &v.Size, &v.Stock, &v.Sold); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *repository) ListProducts(ctx context.Context, filter *ProductFilter, limit, page int32) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "ListProducts"),
		zap.Int32("limit", limit),
		zap.Int32("page", page),
	)

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `
		SELECT id, name, slug, description, price, category, gender, status,
		       image_url, total_stock, sold, created_at, updated_at
		FROM products
		WHERE 1=1
	`

	args := []any{}
	argIndex := 1

	if filter != nil {
		if filter.Category != nil && *filter.Category != "" {
			query += fmt.Sprintf(" AND category = $%d", argIndex)
			args = append(args, *filter.Category)
			argIndex++
		}
		if filter.Gender != nil && *filter.Gender != "" {
			query += fmt.Sprintf(" AND gender = $%d", argIndex)
			args = append(args, *filter.Gender)
			argIndex++
		}
		if filter.Status != nil && *filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}
		if filter.Search != nil && *filter.Search != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR slug ILIKE $%d)", argIndex, argIndex)
			args = append(args, "%"+*filter.Search+"%")
			argIndex++
		}
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Category,
			&p.Gender, &p.Status, &p.ImageURL, &p.TotalStock, &p.Sold,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("products listed", zap.Int("count", len(products)))
	return products, nil
}

func (r *repository) CreateProduct(ctx context.Context, p *Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (
			id, name, slug, description, price, category, gender, status,
			image_url, total_stock, sold, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,NOW(),NOW())
	`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Category,
		p.Gender, p.Status, p.ImageURL, p.TotalStock,
	)
	if err != nil {
		return err
	}

	for _, v := range p.Variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variants (product_id, size, stock, sold)
			VALUES ($1,$2,$3,0)
		`, p.ID, v.Size, v.Stock)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateProduct rewrites the product row and replaces its variant set. Sold
// counters on surviving sizes are preserved.
func (r *repository) UpdateProduct(ctx context.Context, p *Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, category = $5,
		    gender = $6, status = $7, image_url = $8, total_stock = $9,
		    updated_at = NOW()
		WHERE id = $10
	`,
		p.Name, p.Slug, p.Description, p.Price, p.Category,
		p.Gender, p.Status, p.ImageURL, p.TotalStock, p.ID,
	)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProductNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM variants WHERE product_id = $1`, p.ID); err != nil {
		return err
	}

	for _, v := range p.Variants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO variants (product_id, size, stock, sold)
			VALUES ($1,$2,$3,$4)
		`, p.ID, v.Size, v.Stock, v.Sold)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) DeleteProduct(ctx context.Context, productID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) GetVariantForCheckout(ctx context.Context, tx db.Tx, productID, size string) (*CheckoutVariant, error) {
	query := `
		SELECT v.product_id, p.name, p.price, v.size, v.stock
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.product_id = $1 AND v.size = $2 AND p.status = 'active'
	`

	var cv CheckoutVariant
	err := tx.QueryRowContext(ctx, query, productID, size).
		Scan(&cv.ProductID, &cv.ProductName, &cv.Price, &cv.Size, &cv.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cv, nil
}

// ReserveStock decrements one variant's stock and bumps its sold counter. The
// guard on the UPDATE keeps stock from ever going negative even if the caller
// raced past its own read.
func (r *repository) ReserveStock(ctx context.Context, tx db.Tx, productID, size string, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE variants
		SET stock = stock - $1, sold = sold + $1
		WHERE product_id = $2 AND size = $3 AND stock >= $1
	`, qty, productID, size)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT stock FROM variants WHERE product_id = $1 AND size = $2`,
			productID, size,
		).Scan(&available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVariantNotFound
		}
		if err != nil {
			return err
		}
		return &InsufficientStockError{
			ProductID: productID,
			Size:      size,
			Requested: qty,
			Available: available,
		}
	}

	return r.recomputeTotalStock(ctx, tx, productID)
}

func (r *repository) Restock(ctx context.Context, tx db.Tx, productID, size string, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE variants
		SET stock = stock + $1
		WHERE product_id = $2 AND size = $3
	`, qty, productID, size)
	if err != nil {
		return err
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrVariantNotFound
	}

	return r.recomputeTotalStock(ctx, tx, productID)
}

// recomputeTotalStock keeps products.total_stock equal to the sum of the
// product's variant stocks after each variant mutation.
func (r *repository) recomputeTotalStock(ctx context.Context, tx db.Tx, productID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products
		SET total_stock = (
			SELECT COALESCE(SUM(stock), 0) FROM variants WHERE product_id = $1
		), updated_at = NOW()
		WHERE id = $1
	`, productID)
	return err
}
