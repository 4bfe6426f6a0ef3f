package coupon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"uziwear-be/internal/db"
	"uziwear-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	// Validate runs the full check sequence against current state. Safe to
	// call outside a transaction for cart previews; the coordinator calls
	// ValidateTx again inside its transaction before committing usage.
	Validate(ctx context.Context, code string, cartTotal int64, userID string) (*Snapshot, error)
	ValidateTx(ctx context.Context, tx db.Tx, code string, cartTotal int64, userID string) (*Snapshot, error)

	// CommitUsageTx re-checks limits under the transaction and records usage.
	CommitUsageTx(ctx context.Context, tx db.Tx, code string, userID string) error

	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]*Coupon, error)
	Delete(ctx context.Context, code string) error
}

type service struct {
	repo Repository
	db   *sql.DB
}

func NewService(repo Repository, database *sql.DB) Service {
	return &service{repo: repo, db: database}
}

func (s *service) Validate(ctx context.Context, code string, cartTotal int64, userID string) (*Snapshot, error) {
	return s.ValidateTx(ctx, s.db, code, cartTotal, userID)
}

// ValidateTx applies the checks in a fixed order so the first failing check
// always determines the reason: exists, active, expired, minimum purchase,
// usage limit, once per person.
func (s *service) ValidateTx(ctx context.Context, tx db.Tx, code string, cartTotal int64, userID string) (*Snapshot, error) {
	c, err := s.repo.GetByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &InvalidError{Code: code, Reason: ReasonNotFound}
	}

	if !c.Active {
		return nil, &InvalidError{Code: code, Reason: ReasonInactive}
	}

	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return nil, &InvalidError{Code: code, Reason: ReasonExpired}
	}

	if cartTotal < c.MinPurchase {
		return nil, &InvalidError{Code: code, Reason: ReasonBelowMinimum}
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return nil, &InvalidError{Code: code, Reason: ReasonUsageExhausted}
	}

	if c.OncePerPerson {
		used, err := s.repo.HasUserUsed(ctx, tx, c.Code, userID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, &InvalidError{Code: code, Reason: ReasonAlreadyUsed}
		}
	}

	return &Snapshot{
		Code:            c.Code,
		DiscountPercent: c.DiscountPercent,
		Discount:        cartTotal * int64(c.DiscountPercent) / 100,
	}, nil
}

func (s *service) CommitUsageTx(ctx context.Context, tx db.Tx, code string, userID string) error {
	c, err := s.repo.GetByCode(ctx, tx, code)
	if err != nil {
		return err
	}
	if c == nil {
		return &InvalidError{Code: code, Reason: ReasonNotFound}
	}

	// Double-check under the transaction: another checkout may have exhausted
	// the coupon between initial validation and here.
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrExhausted
	}
	if c.OncePerPerson {
		used, err := s.repo.HasUserUsed(ctx, tx, c.Code, userID)
		if err != nil {
			return err
		}
		if used {
			return ErrExhausted
		}
	}

	return s.repo.CommitUsage(ctx, tx, c, userID)
}

func (s *service) Create(ctx context.Context, c *Coupon) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCoupon"),
		zap.String("code", c.Code),
	)

	if c.Code == "" {
		return errors.New("coupon code is required")
	}
	if c.DiscountPercent <= 0 || c.DiscountPercent > 100 {
		return errors.New("discount percent must be between 1 and 100")
	}
	if c.MinPurchase < 0 {
		return errors.New("minimum purchase cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		return errors.New("usage limit must be positive when set")
	}

	if err := s.repo.Create(ctx, c); err != nil {
		log.Error("failed to create coupon", zap.Error(err))
		return err
	}

	log.Info("coupon created", zap.Int("discount_percent", c.DiscountPercent))
	return nil
}

func (s *service) List(ctx context.Context) ([]*Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, code)
}
