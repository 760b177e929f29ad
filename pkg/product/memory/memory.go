// Package memory implements an in-memory product repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"storefront/pkg/product"
)

// Repository provides an in-memory implementation of product.Repository.
type Repository struct {
	mu       sync.RWMutex
	products map[string]product.Product
	ids      []string
}

// New creates a repository holding seed in order.
func New(seed ...product.Product) *Repository {
	r := &Repository{products: make(map[string]product.Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
		r.ids = append(r.ids, p.ID)
	}
	return r
}

// Create stores the product.
func (r *Repository) Create(ctx context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; ok {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	r.products[p.ID] = p
	r.ids = append(r.ids, p.ID)
	return nil
}

// Get retrieves a product by ID.
func (r *Repository) Get(ctx context.Context, id string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

// List returns all products in insertion order.
func (r *Repository) List(ctx context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]product.Product, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.products[id])
	}
	return out, nil
}

// Update replaces an existing product.
func (r *Repository) Update(ctx context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.products, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}
