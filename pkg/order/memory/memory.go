// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"storefront/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	ids    []string
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{orders: make(map[string]order.Order)}
}

// Create stores the order at the end of the insertion sequence.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.orders[o.ID] = o.Clone()
	r.ids = append(r.ids, o.ID)
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o.Clone(), nil
}

// List returns all orders in insertion order.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	return r.filter(func(order.Order) bool { return true }), nil
}

// ListByUser returns the orders owned by userID in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.filter(func(o order.Order) bool { return o.UserID == userID }), nil
}

func (r *Repository) filter(keep func(order.Order) bool) []order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.ids))
	for _, id := range r.ids {
		if o := r.orders[id]; keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Update replaces an existing order.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.orders, id)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}
