package service

import (
	"context"
	"fmt"
	"time"

	"shopcart/internal/model"
	"shopcart/internal/repository"
	"shopcart/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

func normalisePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List retrieves products with pagination and an optional category filter.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	filter.Limit, filter.Offset = normalisePage(filter.Limit, filter.Offset)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Str("category", filter.Category).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Str("category", filter.Category).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Warn().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Msg("product created")

	return product, nil
}

// Update validates and replaces the mutable fields of a product.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(product)
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, err
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")

	return product, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return err
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}
