package catalog

import (
	"context"
	"errors"

	"uziwear-be/internal/logger"
	"uziwear-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context, filter *ProductFilter, limit, page int32) ([]*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, productID string) (*Product, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	// Non-admin callers only see published products.
	if product.Status != StatusActive && !utils.IsAdmin(ctx) {
		return nil, ErrProductNotFound
	}

	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter *ProductFilter, limit, page int32) ([]*Product, error) {
	if filter == nil {
		filter = &ProductFilter{}
	}

	if !utils.IsAdmin(ctx) {
		active := StatusActive
		filter.Status = &active
	}

	return s.repo.ListProducts(ctx, filter, limit, page)
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
		zap.String("name", p.Name),
	)

	if err := validateProduct(p); err != nil {
		log.Warn("invalid product", zap.Error(err))
		return nil, err
	}

	p.ID = uuid.New().String()
	p.Slug = utils.Slugify(p.Name)
	if p.Status == "" {
		p.Status = StatusDraft
	}

	total := 0
	for i := range p.Variants {
		p.Variants[i].ProductID = p.ID
		total += p.Variants[i].Stock
	}
	p.TotalStock = total

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if err := validateProduct(p); err != nil {
		return err
	}

	p.Slug = utils.Slugify(p.Name)

	total := 0
	for i := range p.Variants {
		p.Variants[i].ProductID = p.ID
		total += p.Variants[i].Stock
	}
	p.TotalStock = total

	return s.repo.UpdateProduct(ctx, p)
}

func (s *service) DeleteProduct(ctx context.Context, productID string) error {
	return s.repo.DeleteProduct(ctx, productID)
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.Price <= 0 {
		return errors.New("product price must be positive")
	}

	switch p.Status {
	case "", StatusActive, StatusDraft, StatusArchived:
	default:
		return errors.New("invalid product status")
	}

	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if v.Size == "" {
			return errors.New("variant size is required")
		}
		if v.Stock < 0 {
			return errors.New("variant stock cannot be negative")
		}
		if seen[v.Size] {
			return errors.New("duplicate variant size: " + v.Size)
		}
		seen[v.Size] = true
	}

	return nil
}
