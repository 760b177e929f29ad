package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/pkg/user"
	"storefront/pkg/user/memory"
	"storefront/pkg/validation"
)

type stubOrders map[string][]string

func (s stubOrders) OrderIDs(_ context.Context, userID string) ([]string, error) {
	ids := s[userID]
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

func setup(t *testing.T, orders stubOrders) (*user.Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	return user.NewService(repo, user.BcryptManager{Cost: bcrypt.MinCost}, orders), repo
}

func TestRegister(t *testing.T) {
	svc, repo := setup(t, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, user.Registration{Name: "Sample Customer", Email: " Customer@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "customer@example.com", u.Email)
	assert.Equal(t, user.RoleCustomer, u.Role)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.Equal(t, []string{}, u.Orders)

	stored, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo := setup(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, user.Registration{Name: "A", Email: "dup@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, user.Registration{Name: "B", Email: "DUP@example.com", Password: "other"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc, repo := setup(t, nil)

	_, err := svc.Register(context.Background(), user.Registration{Email: "x@example.com"})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name", "password"}, verr.Fields)

	all, _ := repo.List(context.Background())
	assert.Empty(t, all)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	svc, repo := setup(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, user.Registration{Name: "L", Email: "long@example.com", Password: strings.Repeat("a", user.MaxPasswordBytes+1)})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"password"}, verr.Fields)

	all, _ := repo.List(ctx)
	assert.Empty(t, all)

	_, err = svc.Register(ctx, user.Registration{Name: "L", Email: "long@example.com", Password: strings.Repeat("a", user.MaxPasswordBytes)})
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "long@example.com", strings.Repeat("a", user.MaxPasswordBytes+1))
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestAuthenticate(t *testing.T) {
	orders := stubOrders{}
	svc, _ := setup(t, orders)
	ctx := context.Background()

	registered, err := svc.Register(ctx, user.Registration{Name: "C", Email: "c@example.com", Password: "password123"})
	require.NoError(t, err)
	orders[registered.ID] = []string{"order-1"}

	u, err := svc.Authenticate(ctx, "C@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.Equal(t, []string{"order-1"}, u.Orders)

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), u.PasswordHash)

	_, err = svc.Authenticate(ctx, "c@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestGetDerivesOrders(t *testing.T) {
	orders := stubOrders{}
	svc, _ := setup(t, orders)
	ctx := context.Background()

	u, err := svc.Register(ctx, user.Registration{Name: "D", Email: "d@example.com", Password: "pw"})
	require.NoError(t, err)

	orders[u.ID] = []string{"order-1", "order-2"}
	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-1", "order-2"}, got.Orders)

	orders[u.ID] = []string{"order-2"}
	got, err = svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-2"}, got.Orders)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := setup(t, nil)
	ctx := context.Background()
	in := user.Registration{Name: "Admin User", Email: "admin@example.com", Password: "changeme"}

	admin, err := svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, admin.Role)

	again, err := svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	customer, err := svc.Register(ctx, user.Registration{Name: "E", Email: "e@example.com", Password: "pw"})
	require.NoError(t, err)
	promoted, err := svc.EnsureAdmin(ctx, user.Registration{Name: "E", Email: "e@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, promoted.ID)
	assert.Equal(t, user.RoleAdmin, promoted.Role)
}

func TestBcryptManager(t *testing.T) {
	m := user.BcryptManager{Cost: bcrypt.MinCost}
	hash, err := m.Hash("admin123")
	require.NoError(t, err)

	ok, err := m.Check(hash, "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Check(hash, "admin124")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Check("not-a-hash", "admin123")
	assert.Error(t, err)
}
