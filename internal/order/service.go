package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"uziwear-be/internal/catalog"
	"uziwear-be/internal/coupon"
	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"
	"uziwear-be/internal/metrics"
	"uziwear-be/internal/notify"
	"uziwear-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Shipping is computed server side from the chosen method; standard shipping
// is free once the discounted subtotal clears the threshold.
const (
	shippingStandardCost  int64 = 12000
	shippingExpressCost   int64 = 22000
	freeShippingThreshold int64 = 250000
)

type Service interface {
	// CreateOrder runs the whole checkout as one atomic transaction: stock
	// reservation, coupon usage and the order write commit together or not at
	// all. The confirmation event fires only after commit.
	CreateOrder(ctx context.Context, input CheckoutInput) (*Order, error)

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page int32) ([]*Order, error)

	// UpdatePaymentStatus is the payment gateway callback path; it never runs
	// inside the checkout transaction.
	UpdatePaymentStatus(ctx context.Context, orderID string, status PaymentStatus, transactionID string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	catalog  catalog.Repository
	coupons  coupon.Service
	notifier notify.Notifier
}

func NewService(
	database *sql.DB,
	repo Repository,
	catalogRepo catalog.Repository,
	couponSvc coupon.Service,
	notifier notify.Notifier,
) Service {
	return &service{
		db:       database,
		repo:     repo,
		catalog:  catalogRepo,
		coupons:  couponSvc,
		notifier: notifier,
	}
}

// reservedLine pairs a validated checkout line with its live snapshot read
// inside the transaction.
type reservedLine struct {
	variant *catalog.CheckoutVariant
	qty     int
}

func (s *service) CreateOrder(ctx context.Context, input CheckoutInput) (*Order, error) {
	timer := metrics.StartTimer()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("user_id", input.UserID),
		zap.Int("item_count", len(input.Items)),
	)

	if err := validateCheckoutInput(&input); err != nil {
		log.Warn("checkout rejected", zap.Error(err))
		metrics.CheckoutsFailed.Inc()
		return nil, err
	}

	var created *Order

	err := db.RunInTx(ctx, s.db, func(tx db.Tx) error {
		created = nil

		// Phase 1: reads. Every variant is loaded and checked before any
		// write so a failing line aborts with nothing mutated.
		lines := make([]reservedLine, 0, len(input.Items))
		var subtotal int64

		for _, item := range input.Items {
			cv, err := s.catalog.GetVariantForCheckout(ctx, tx, item.ProductID, item.Size)
			if err != nil {
				return err
			}
			if cv.Stock < item.Quantity {
				return &catalog.InsufficientStockError{
					ProductID: cv.ProductID,
					Size:      cv.Size,
					Requested: item.Quantity,
					Available: cv.Stock,
				}
			}
			lines = append(lines, reservedLine{variant: cv, qty: item.Quantity})
			subtotal += cv.Price * int64(item.Quantity)
		}

		// Coupon validation runs inside the transaction; a coupon exhausted
		// by a concurrent checkout fails this one rather than silently
		// charging more than the shopper was shown.
		var discount int64
		var couponCode *string
		if input.CouponCode != nil && *input.CouponCode != "" {
			snap, err := s.coupons.ValidateTx(ctx, tx, *input.CouponCode, subtotal, input.UserID)
			if err != nil {
				return err
			}
			discount = snap.Discount
			couponCode = utils.StrPtr(snap.Code)
		}

		shippingCost := shippingCostFor(input.ShippingMethod, subtotal-discount)
		total := subtotal - discount + shippingCost
		if total <= 0 {
			return validationErrorf("computed total must be positive")
		}

		// Phase 2: writes.
		items := make([]OrderItem, 0, len(lines))
		for _, line := range lines {
			if err := s.catalog.ReserveStock(ctx, tx, line.variant.ProductID, line.variant.Size, line.qty); err != nil {
				return err
			}
			items = append(items, OrderItem{
				ProductID: line.variant.ProductID,
				Name:      line.variant.ProductName,
				Price:     line.variant.Price,
				Size:      line.variant.Size,
				Quantity:  line.qty,
			})
		}

		if couponCode != nil {
			if err := s.coupons.CommitUsageTx(ctx, tx, *couponCode, input.UserID); err != nil {
				if errors.Is(err, coupon.ErrExhausted) {
					return &coupon.InvalidError{Code: *couponCode, Reason: coupon.ReasonUsageExhausted}
				}
				return err
			}
		}

		o := &Order{
			ID:            uuid.New().String(),
			OrderNumber:   GenerateOrderNumber(),
			UserID:        input.UserID,
			CustomerName:  input.CustomerName,
			CustomerEmail: input.CustomerEmail,
			CustomerPhone: input.CustomerPhone,
			Address:       input.Address,
			City:          input.City,
			Department:    input.Department,
			Notes:         input.Notes,
			Items:         items,
			Subtotal:      subtotal,
			Discount:      discount,
			CouponCode:    couponCode,
			ShippingCost:  shippingCost,
			Total:         total,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: initialPaymentStatus(input.PaymentMethod),
			Status:        StatusPreparing,
			CreatedAt:     time.Now(),
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}

		if err := s.repo.InsertOrder(ctx, tx, o); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		metrics.CheckoutsFailed.Inc()
		log.Warn("checkout failed",
			zap.Duration("elapsed", timer.Duration()),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	log.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Int64("total", created.Total),
		zap.Duration("elapsed", timer.Duration()),
	)

	// Best-effort confirmation; failures never undo the committed order.
	if err := s.notifier.OrderConfirmed(ctx, notify.OrderConfirmedEvent{
		OrderID:       created.ID,
		OrderNumber:   created.OrderNumber,
		CustomerName:  created.CustomerName,
		CustomerEmail: created.CustomerEmail,
		Total:         created.Total,
		PaymentMethod: string(created.PaymentMethod),
	}); err != nil {
		log.Warn("failed to publish order confirmation", zap.Error(err))
	}

	return created, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Anonymous callers read as the guest identity: the order id is an
	// unguessable uuid, so a guest holding the id from their own checkout
	// response can fetch that order.
	if !utils.IsAdmin(ctx) {
		userID, ok := utils.GetUserIDFromContext(ctx)
		if !ok {
			userID = utils.GuestUserID
		}
		if o.UserID != userID {
			return nil, ErrOrderNotFound
		}
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page int32) ([]*Order, error) {
	return s.repo.ListOrders(ctx, filter, sort, limit, page)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID string, status PaymentStatus, transactionID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "UpdatePaymentStatus"),
		zap.String("order_id", orderID),
		zap.String("payment_status", string(status)),
	)

	switch status {
	case PaymentPending, PaymentInitiated, PaymentPaid, PaymentFailed:
	default:
		return validationErrorf("unknown payment status: " + string(status))
	}

	var txnID *string
	if transactionID != "" {
		txnID = &transactionID
	}

	if err := s.repo.UpdatePaymentStatus(ctx, orderID, status, txnID); err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return err
	}

	log.Info("payment status updated")
	return nil
}

func validateCheckoutInput(input *CheckoutInput) error {
	if input.UserID == "" {
		input.UserID = utils.GuestUserID
	}

	if len(input.Items) == 0 {
		return validationErrorf("cart is empty")
	}
	for _, item := range input.Items {
		if item.ProductID == "" || item.Size == "" {
			return validationErrorf("item product and size are required")
		}
		if item.Quantity <= 0 {
			return validationErrorf("item quantity must be positive")
		}
	}

	if input.CustomerName == "" || input.CustomerEmail == "" || input.CustomerPhone == "" {
		return validationErrorf("customer name, email and phone are required")
	}
	if input.Address == "" || input.City == "" {
		return validationErrorf("shipping address and city are required")
	}

	switch input.ShippingMethod {
	case ShippingStandard, ShippingExpress:
	case "":
		input.ShippingMethod = ShippingStandard
	default:
		return validationErrorf("unknown shipping method: " + string(input.ShippingMethod))
	}

	switch input.PaymentMethod {
	case MethodCOD, MethodCard, MethodPSE:
	default:
		return validationErrorf("unknown payment method: " + string(input.PaymentMethod))
	}

	return nil
}

func shippingCostFor(method ShippingMethod, discountedSubtotal int64) int64 {
	if method == ShippingExpress {
		return shippingExpressCost
	}
	if discountedSubtotal >= freeShippingThreshold {
		return 0
	}
	return shippingStandardCost
}

// Cash on delivery settles at the door; online methods wait for the gateway
// callback to confirm.
func initialPaymentStatus(method PaymentMethod) PaymentStatus {
	if method == MethodCOD {
		return PaymentPending
	}
	return PaymentInitiated
}
