package user

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptManager is a PasswordManager backed by bcrypt.
type BcryptManager struct {
	Cost int
}

// NewBcryptManager uses bcrypt.DefaultCost.
func NewBcryptManager() BcryptManager {
	return BcryptManager{Cost: bcrypt.DefaultCost}
}

// Hash returns the bcrypt hash of plainTextPassword.
func (m BcryptManager) Hash(plainTextPassword string) (string, error) {
	cost := m.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check reports whether plainTextPassword matches hashedPassword.
func (m BcryptManager) Check(hashedPassword, plainTextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainTextPassword))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}
