package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a menu entry. Prices are integer minor units.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	Available   bool      `json:"available" db:"available"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductInput is the staff-editable part of a product.
type ProductInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PriceCents  int64   `json:"price_cents"`
	ImageURL    *string `json:"image_url,omitempty"`
	Position    int     `json:"position"`
}

// AvailabilityRequest toggles whether a product is on the menu.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}
