package order

import (
	"context"
	"database/sql"

	"uziwear-be/internal/catalog"
	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"
	"uziwear-be/internal/notify"

	"go.uber.org/zap"
)

// allowedTransitions is the order status state machine. Returned and
// cancelled orders are terminal.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPreparing: {StatusShipped: true, StatusCancelled: true, StatusReturned: true},
	StatusShipped:   {StatusDelivered: true, StatusReturned: true},
	StatusDelivered: {StatusReturned: true},
	StatusCancelled: {},
	StatusReturned:  {},
}

// StatusService applies admin-driven status transitions, restocking inventory
// when an order comes back.
type StatusService interface {
	UpdateStatus(ctx context.Context, orderID string, newStatus OrderStatus) error
	AttachTracking(ctx context.Context, orderID, trackingNumber, carrier string) error
}

type statusService struct {
	db       *sql.DB
	repo     Repository
	catalog  catalog.Repository
	notifier notify.Notifier
}

func NewStatusService(
	database *sql.DB,
	repo Repository,
	catalogRepo catalog.Repository,
	notifier notify.Notifier,
) StatusService {
	return &statusService{
		db:       database,
		repo:     repo,
		catalog:  catalogRepo,
		notifier: notifier,
	}
}

func (s *statusService) UpdateStatus(ctx context.Context, orderID string, newStatus OrderStatus) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", orderID),
	)

	if _, known := allowedTransitions[newStatus]; !known {
		return validationErrorf("unknown status: " + string(newStatus))
	}

	var prev OrderStatus

	err := db.RunInTx(ctx, s.db, func(tx db.Tx) error {
		o, err := s.repo.GetOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		prev = o.Status

		if !allowedTransitions[o.Status][newStatus] {
			return validationErrorf(
				"illegal status transition: " + string(o.Status) + " -> " + string(newStatus),
			)
		}

		if newStatus == StatusShipped && (o.TrackingNumber == nil || *o.TrackingNumber == "") {
			return validationErrorf("cannot mark as shipped without a tracking number")
		}

		// Restock happens exactly once: the transition guard above rejects a
		// second move into devuelto because devuelto is terminal.
		if newStatus == StatusReturned {
			for _, item := range o.Items {
				if err := s.catalog.Restock(ctx, tx, item.ProductID, item.Size, item.Quantity); err != nil {
					return err
				}
			}
		}

		return s.repo.UpdateStatus(ctx, tx, orderID, newStatus)
	})
	if err != nil {
		log.Warn("status update rejected", zap.Error(err))
		return err
	}

	log.Info("order status updated",
		zap.String("previous_status", string(prev)),
		zap.String("new_status", string(newStatus)),
	)

	return nil
}

func (s *statusService) AttachTracking(ctx context.Context, orderID, trackingNumber, carrier string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AttachTracking"),
		zap.String("order_id", orderID),
	)

	if trackingNumber == "" {
		return validationErrorf("tracking number is required")
	}

	var shipped *Order

	err := db.RunInTx(ctx, s.db, func(tx db.Tx) error {
		o, err := s.repo.GetOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		switch o.Status {
		case StatusPreparing, StatusShipped:
		default:
			return validationErrorf("cannot attach tracking to a " + string(o.Status) + " order")
		}

		if err := s.repo.AttachTracking(ctx, tx, orderID, trackingNumber, carrier); err != nil {
			return err
		}

		shipped = o
		return nil
	})
	if err != nil {
		log.Warn("attach tracking rejected", zap.Error(err))
		return err
	}

	log.Info("tracking attached",
		zap.String("previous_status", string(shipped.Status)),
		zap.String("new_status", string(StatusShipped)),
		zap.String("carrier", carrier),
	)

	if err := s.notifier.OrderShipped(ctx, notify.OrderShippedEvent{
		OrderID:        shipped.ID,
		OrderNumber:    shipped.OrderNumber,
		CustomerEmail:  shipped.CustomerEmail,
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
	}); err != nil {
		log.Warn("failed to publish shipping notification", zap.Error(err))
	}

	return nil
}
