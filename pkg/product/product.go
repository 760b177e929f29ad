// Package product manages the storefront catalog.
package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/pkg/validation"
)

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Volume      string          `json:"volume"`
	Type        string          `json:"type"`
}

// Validate rejects products without a name or with a negative price.
func (p Product) Validate() error {
	if p.Name == "" {
		return validation.Required("name")
	}
	if p.Price.IsNegative() {
		return validation.Invalid("price", "must not be negative")
	}
	return validation.Money("price", p.Price)
}

// Patch carries the fields of a partial update. Nil fields are kept.
type Patch struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Description *string          `json:"description,omitempty"`
	Volume      *string          `json:"volume,omitempty"`
	Type        *string          `json:"type,omitempty"`
}

// Apply merges the set fields of patch into p.
func (patch Patch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Volume != nil {
		p.Volume = *patch.Volume
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	return p
}

// Repository defines behavior for persisting products. List results are in
// insertion order.
type Repository interface {
	Create(ctx context.Context, p Product) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Catalog is the product CRUD service.
type Catalog struct {
	repo  Repository
	newID func() string
}

// NewCatalog returns a Catalog over repo.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo, newID: uuid.NewString}
}

// List returns every product.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.repo.List(ctx)
}

// Get returns the product with id.
func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	return c.repo.Get(ctx, id)
}

// Create assigns a fresh id and stores p. Any id on p is ignored.
func (c *Catalog) Create(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	p.ID = c.newID()
	if err := c.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update merges patch into the stored product.
func (c *Catalog) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	p, err := c.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p = patch.Apply(p)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if err := c.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Delete removes the product with id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}
