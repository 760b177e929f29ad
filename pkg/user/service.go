package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/pkg/validation"
)

// Registration is the signup input.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service registers and authenticates users.
type Service struct {
	repo      Repository
	passwords PasswordManager
	orders    OrderLookup
	newID     func() string
}

// NewService returns a Service. orders fills User.Orders on every read.
func NewService(repo Repository, passwords PasswordManager, orders OrderLookup) *Service {
	return &Service{
		repo:      repo,
		passwords: passwords,
		orders:    orders,
		newID:     func() string { return "user-" + uuid.NewString() },
	}
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, in Registration) (User, error) {
	return s.create(ctx, in, RoleCustomer)
}

func (s *Service) create(ctx context.Context, in Registration, role Role) (User, error) {
	var c validation.Collector
	c.Require("name", in.Name != "")
	c.Require("email", NormalizeEmail(in.Email) != "")
	c.Require("password", in.Password != "")
	if err := c.Err(); err != nil {
		return User{}, err
	}
	if len(in.Password) > MaxPasswordBytes {
		return User{}, validation.Invalid("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}

	email := NormalizeEmail(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	u.Orders = []string{}
	return u, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	ok, err := s.passwords.Check(u.PasswordHash, password)
	if err != nil {
		return User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return s.withOrders(ctx, u)
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	return s.withOrders(ctx, u)
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered. An existing non-admin account is promoted.
func (s *Service) EnsureAdmin(ctx context.Context, in Registration) (User, error) {
	existing, err := s.repo.GetByEmail(ctx, NormalizeEmail(in.Email))
	switch {
	case errors.Is(err, ErrNotFound):
		return s.create(ctx, in, RoleAdmin)
	case err != nil:
		return User{}, err
	}

	if existing.Role != RoleAdmin {
		existing.Role = RoleAdmin
		if err := s.repo.Update(ctx, existing); err != nil {
			return User{}, err
		}
	}
	return s.withOrders(ctx, existing)
}

func (s *Service) withOrders(ctx context.Context, u User) (User, error) {
	ids, err := s.orders.OrderIDs(ctx, u.ID)
	if err != nil {
		return User{}, fmt.Errorf("listing orders of %s: %w", u.ID, err)
	}
	u.Orders = ids
	return u, nil
}
