package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	repo   repository.ProductRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		repo:   repo,
		now:    time.Now,
		logger: logger.With().Str("service", "product").Logger(),
	}
}

// Menu returns available products in display order.
func (s *productService) Menu(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return products, nil
}

// ListAll returns every product in display order.
func (s *productService) ListAll(ctx context.Context) ([]model.Product, error) {
	products, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create adds an available product.
func (s *productService) Create(ctx context.Context, input model.ProductInput) (*model.Product, error) {
	input, err := normaliseProduct(input)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		Available:   true,
		Position:    input.Position,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Update rewrites the editable fields. Existing orders keep their snapshots.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input model.ProductInput) (*model.Product, error) {
	input, err := normaliseProduct(input)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Update(ctx, &model.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		Position:    input.Position,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !ok {
		return nil, model.ErrProductNotFound
	}

	return s.get(ctx, id)
}

// SetAvailability shows or hides a product on the menu.
func (s *productService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*model.Product, error) {
	ok, err := s.repo.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, fmt.Errorf("failed to set availability: %w", err)
	}
	if !ok {
		return nil, model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Bool("available", available).Msg("product availability changed")
	return s.get(ctx, id)
}

// Delete removes a product from the catalog.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !ok {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *productService) get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func normaliseProduct(input model.ProductInput) (model.ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.PriceCents < 0 {
		return input, model.ErrInvalidProduct
	}
	input.Description = blankToNil(input.Description)
	input.ImageURL = blankToNil(input.ImageURL)
	return input, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
