package cart

import (
	"fmt"
	"sync"

	"orderdesk/internal/model"

	"github.com/google/uuid"
)

// Line is one product in the cart. Name and price are the snapshot shown to
// the customer; the server reprices at checkout.
type Line struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

// Store persists cart lines between runs.
type Store interface {
	// Load returns the saved lines, or nil when nothing was saved.
	Load() ([]Line, error)
	// Save replaces the saved lines.
	Save(lines []Line) error
}

// Cart is a client-local cart. Every mutation is saved through its Store.
type Cart struct {
	mu    sync.Mutex
	lines []Line
	store Store
}

// Open loads the cart from store.
func Open(store Store) (*Cart, error) {
	lines, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	c := &Cart{store: store}
	for _, l := range lines {
		if l.Quantity > 0 && l.ProductID != uuid.Nil {
			c.lines = append(c.lines, l)
		}
	}
	return c, nil
}

// Add puts one unit of product in the cart, adding a line if needed.
func (c *Cart) Add(product model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(product.ID); i >= 0 {
		c.lines[i].Quantity++
		return c.save()
	}

	c.lines = append(c.lines, Line{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Quantity:       1,
	})
	return c.save()
}

// Remove drops the line for id. Unknown ids are ignored.
func (c *Cart) Remove(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return c.save()
}

// SetQuantity sets the quantity of an existing line; q <= 0 removes it.
func (c *Cart) SetQuantity(id uuid.UUID, q int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	if q <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	} else {
		c.lines[i].Quantity = q
	}
	return c.save()
}

// Clear empties the cart.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	return c.save()
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// TotalItems returns the number of units in the cart.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalCents returns the displayed total. The charged total is computed by
// the server.
func (c *Cart) TotalCents() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, l := range c.lines {
		total += l.UnitPriceCents * int64(l.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// CheckoutItems converts the cart to a checkout payload. Prices are left out.
func (c *Cart) CheckoutItems() []model.CheckoutItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]model.CheckoutItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, model.CheckoutItem{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			Quantity:  l.Quantity,
		})
	}
	return items
}

func (c *Cart) indexOf(id uuid.UUID) int {
	for i, l := range c.lines {
		if l.ProductID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) save() error {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	if err := c.store.Save(lines); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
