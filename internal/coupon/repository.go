package coupon

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"uziwear-be/internal/db"
)

type Repository interface {
	// Reads that may run either standalone (pass the *sql.DB) or inside a
	// transaction (pass the *sql.Tx).
	GetByCode(ctx context.Context, q db.Tx, code string) (*Coupon, error)
	HasUserUsed(ctx context.Context, q db.Tx, code, userID string) (bool, error)

	// CommitUsage atomically bumps used_count (guarded by usage_limit) and
	// records the redeeming user. Must run inside a transaction.
	CommitUsage(ctx context.Context, tx db.Tx, c *Coupon, userID string) error

	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]*Coupon, error)
	Delete(ctx context.Context, code string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) GetByCode(ctx context.Context, q db.Tx, code string) (*Coupon, error) {
	query := `
		SELECT code, discount_percent, min_purchase, usage_limit, used_count,
		       once_per_person, expires_at, active, created_at
		FROM coupons
		WHERE code = $1
	`

	var c Coupon
	err := q.QueryRowContext(ctx, query, normalize(code)).Scan(
		&c.Code, &c.DiscountPercent, &c.MinPurchase, &c.UsageLimit,
		&c.UsedCount, &c.OncePerPerson, &c.ExpiresAt, &c.Active, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) HasUserUsed(ctx context.Context, q db.Tx, code, userID string) (bool, error) {
	var used bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM coupon_usages WHERE code = $1 AND user_id = $2
		)
	`, normalize(code), userID).Scan(&used)
	return used, err
}

// CommitUsage guards on the usage limit only; activity and expiry were already
// checked by ValidateTx inside the same transaction, so a miss here always
// means the limit was hit.
func (r *repository) CommitUsage(ctx context.Context, tx db.Tx, c *Coupon, userID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = $1
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`, c.Code)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrExhausted
	}

	if c.OncePerPerson {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO coupon_usages (code, user_id, used_at)
			VALUES ($1, $2, NOW())
		`, c.Code, userID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) Create(ctx context.Context, c *Coupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (
			code, discount_percent, min_purchase, usage_limit, used_count,
			once_per_person, expires_at, active, created_at
		) VALUES ($1,$2,$3,$4,0,$5,$6,$7,NOW())
	`,
		normalize(c.Code), c.DiscountPercent, c.MinPurchase, c.UsageLimit,
		c.OncePerPerson, c.ExpiresAt, c.Active,
	)
	return err
}

func (r *repository) List(ctx context.Context) ([]*Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, discount_percent, min_purchase, usage_limit, used_count,
		       once_per_person, expires_at, active, created_at
		FROM coupons
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*Coupon
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(
			&c.Code, &c.DiscountPercent, &c.MinPurchase, &c.UsageLimit,
			&c.UsedCount, &c.OncePerPerson, &c.ExpiresAt, &c.Active, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		coupons = append(coupons, &c)
	}
	return coupons, rows.Err()
}

func (r *repository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, normalize(code))
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &InvalidError{Code: code, Reason: ReasonNotFound}
	}
	return nil
}

// Codes are case-insensitive; they are stored and queried lowercased.
func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
