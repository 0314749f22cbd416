// Package pricing turns a customer's cart into order line snapshots priced
// from the catalog.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxLineQuantity caps a single cart line. It keeps quantities inside the
// INTEGER column and totals far from int64 overflow.
const MaxLineQuantity = 99

// Catalog is the part of the product store the validator reads.
type Catalog interface {
	GetAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
}

// Result is a priced cart.
type Result struct {
	Items      []model.OrderItem
	TotalCents int64
}

// Validator prices cart lines from authoritative catalog data.
type Validator interface {
	// Validate returns one snapshot per line, in request order. Any line whose
	// product is missing or unavailable fails with a ProductUnavailable error
	// naming it.
	Validate(ctx context.Context, lines []model.CheckoutItem) (*Result, error)
}

type validator struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewValidator creates a price validator reading from catalog.
func NewValidator(catalog Catalog, logger zerolog.Logger) Validator {
	return &validator{
		catalog: catalog,
		logger:  logger.With().Str("component", "price-validator").Logger(),
	}
}

func (v *validator) Validate(ctx context.Context, lines []model.CheckoutItem) (*Result, error) {
	if len(lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			v.logger.Warn().
				Int("item_index", i).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("invalid quantity")
			return nil, model.ErrInvalidQuantity
		}

		id, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			return nil, model.ProductUnavailable(label(line))
		}
		ids[i] = id
	}

	products, err := v.catalog.GetAvailableByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog prices: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	result := &Result{Items: make([]model.OrderItem, 0, len(lines))}
	for i, line := range lines {
		product, ok := byID[ids[i]]
		if !ok {
			v.logger.Info().Str("product_id", ids[i].String()).Msg("product unavailable at checkout")
			return nil, model.ProductUnavailable(label(line))
		}

		if product.PriceCents > 0 &&
			int64(line.Quantity) > (math.MaxInt64-result.TotalCents)/product.PriceCents {
			v.logger.Warn().
				Str("product_id", product.ID.String()).
				Int("quantity", line.Quantity).
				Int64("unit_price_cents", product.PriceCents).
				Msg("order total out of range")
			return nil, model.ErrInvalidQuantity
		}

		item := model.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		}
		result.Items = append(result.Items, item)
		result.TotalCents += item.LineTotalCents()
	}

	return result, nil
}

// label picks the most readable identifier the customer sent for a line.
func label(line model.CheckoutItem) string {
	if name := strings.TrimSpace(line.Name); name != "" {
		return name
	}
	return line.ProductID
}
