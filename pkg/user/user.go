// Package user manages storefront accounts and credential checks.
package user

import (
	"context"
	"errors"
	"strings"
)

// Role decides which routes a user may call.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account. PasswordHash never leaves the process; Orders is
// derived from the order store on read.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	Orders       []string `json:"orders"`
}

// Repository defines behavior for persisting users. Create and Update return
// ErrEmailTaken when another user already holds the email.
type Repository interface {
	Create(ctx context.Context, u User) error
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}

// PasswordManager hashes and verifies passwords.
type PasswordManager interface {
	Hash(plainTextPassword string) (string, error)
	Check(hashedPassword, plainTextPassword string) (bool, error)
}

// OrderLookup lists the ids of the orders a user owns.
type OrderLookup interface {
	OrderIDs(ctx context.Context, userID string) ([]string, error)
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
