// Package memory implements an in-memory user repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"storefront/pkg/user"
)

// Repository provides an in-memory implementation of user.Repository.
type Repository struct {
	mu      sync.RWMutex
	users   map[string]user.User
	byEmail map[string]string
	ids     []string
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		users:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func store(u user.User) user.User {
	u.Email = user.NormalizeEmail(u.Email)
	u.Orders = nil
	return u
}

// Create stores the user, enforcing email uniqueness.
func (r *Repository) Create(ctx context.Context, u user.User) error {
	u = store(u)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	r.users[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.ids = append(r.ids, u.ID)
	return nil
}

// Get retrieves a user by ID.
func (r *Repository) Get(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.users[id], nil
}

// List returns all users in insertion order.
func (r *Repository) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]user.User, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.users[id])
	}
	return out, nil
}

// Update replaces an existing user.
func (r *Repository) Update(ctx context.Context, u user.User) error {
	u = store(u)
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return user.ErrEmailTaken
	}
	delete(r.byEmail, old.Email)
	r.users[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

// Delete removes a user by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(r.users, id)
	delete(r.byEmail, u.Email)
	for i, v := range r.ids {
		if v == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
	return nil
}
