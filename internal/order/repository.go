package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"
	"uziwear-be/internal/utils"

	"go.uber.org/zap"
)

type Repository interface {
	// InsertOrder writes the order header and its item snapshots. Runs inside
	// the coordinator's transaction.
	InsertOrder(ctx context.Context, tx db.Tx, o *Order) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	GetOrderTx(ctx context.Context, tx db.Tx, orderID string) (*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page int32) ([]*Order, error)

	UpdateStatus(ctx context.Context, tx db.Tx, orderID string, status OrderStatus) error
	AttachTracking(ctx context.Context, tx db.Tx, orderID, trackingNumber, carrier string) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status PaymentStatus, transactionID *string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

func (r *repository) InsertOrder(ctx context.Context, tx db.Tx, o *Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, user_id,
			customer_name, customer_email, customer_phone,
			address, city, department, notes,
			subtotal, discount, coupon_code, shipping_cost, total,
			payment_method, payment_status, status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,NOW(),NOW())
	`,
		o.ID, o.OrderNumber, o.UserID,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.Address, o.City, o.Department, o.Notes,
		o.Subtotal, o.Discount, o.CouponCode, o.ShippingCost, o.Total,
		o.PaymentMethod, o.PaymentStatus, o.Status,
	)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, size, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, o.ID, item.ProductID, item.Name, item.Price, item.Size, item.Quantity)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return r.GetOrderTx(ctx, r.db, orderID)
}

func (r *repository) GetOrderTx(ctx context.Context, tx db.Tx, orderID string) (*Order, error) {
	query := `
		SELECT id, order_number, user_id,
		       customer_name, customer_email, customer_phone,
		       address, city, department, notes,
		       subtotal, discount, coupon_code, shipping_cost, total,
		       payment_method, payment_status, transaction_id,
		       status, tracking_number, carrier,
		       created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := tx.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Address, &o.City, &o.Department, &o.Notes,
		&o.Subtotal, &o.Discount, &o.CouponCode, &o.ShippingCost, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.TransactionID,
		&o.Status, &o.TrackingNumber, &o.Carrier,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, size, quantity
		FROM order_items
		WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.OrderID, &item.ProductID, &item.Name,
			&item.Price, &item.Size, &item.Quantity,
		); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) ListOrders(
	ctx context.Context,
	filter *OrderFilterInput,
	sort *OrderSortInput,
	limit, page int32,
) ([]*Order, error) {

	userID, _ := utils.GetUserIDFromContext(ctx)
	isAdmin := utils.IsAdmin(ctx)

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

	log := logger.FromCtx(ctx).With(
		zap.String("method", "ListOrders"),
		zap.Bool("is_admin", isAdmin),
		zap.Int32("limit", limit),
		zap.Int32("page", page),
	)

	query := `
		SELECT o.id, o.order_number, o.user_id, o.customer_name, o.customer_email,
		       o.subtotal, o.discount, o.coupon_code, o.shipping_cost, o.total,
		       o.payment_method, o.payment_status, o.status,
		       o.tracking_number, o.carrier, o.created_at, o.updated_at
		FROM orders o
		WHERE 1=1
	`

	args := []any{}
	argIndex := 1

	if !isAdmin {
		query += fmt.Sprintf(" AND o.user_id = $%d", argIndex)
		args = append(args, userID)
		argIndex++
	}

	if filter != nil {
		if filter.Search != nil && *filter.Search != "" {
			query += fmt.Sprintf(
				" AND (o.order_number ILIKE $%d OR o.customer_email ILIKE $%d)",
				argIndex, argIndex,
			)
			args = append(args, "%"+*filter.Search+"%")
			argIndex++
		}

		if filter.Status != nil && *filter.Status != "" {
			query += fmt.Sprintf(" AND o.status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}

		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND o.created_at >= $%d", argIndex)
			args = append(args, *filter.DateFrom)
			argIndex++
		}

		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND o.created_at <= $%d", argIndex)
			args = append(args, *filter.DateTo)
			argIndex++
		}
	}

	orderBy := "o.created_at DESC"
	if sort != nil {
		dir := strings.ToUpper(sort.Direction)
		if dir != "ASC" && dir != "DESC" {
			dir = "DESC"
		}
		switch sort.Field {
		case OrderSortFieldTotal:
			orderBy = "o.total " + dir
		case OrderSortFieldCreatedAt:
			orderBy = "o.created_at " + dir
		}
	}

	query += " ORDER BY " + orderBy
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.CustomerEmail,
			&o.Subtotal, &o.Discount, &o.CouponCode, &o.ShippingCost, &o.Total,
			&o.PaymentMethod, &o.PaymentStatus, &o.Status,
			&o.TrackingNumber, &o.Carrier, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Info("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tx db.Tx, orderID string, status OrderStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) AttachTracking(ctx context.Context, tx db.Tx, orderID, trackingNumber, carrier string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET tracking_number = $1, carrier = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`, trackingNumber, carrier, StatusShipped, orderID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, orderID string, status PaymentStatus, transactionID *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1,
		    transaction_id = COALESCE($2, transaction_id),
		    updated_at = NOW()
		WHERE id = $3
	`, status, transactionID, orderID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
