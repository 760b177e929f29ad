// Package postgres persists users in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"storefront/pkg/user"
)

const columns = `id, email, password_hash, name, role`

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Repository persists users in PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

// New creates a PostgreSQL repository.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Name         string `db:"name"`
	Role         string `db:"role"`
}

func (r row) toUser() user.User {
	return user.User{ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, Name: r.Name, Role: user.Role(r.Role)}
}

func toRow(u user.User) row {
	return row{
		ID:           u.ID,
		Email:        user.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         string(u.Role),
	}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, u user.User) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO users (`+columns+`) VALUES (:id, :email, :password_hash, :name, :role)`, toRow(u))
	if isUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	return errors.Wrap(err, "insert user")
}

// Get retrieves a user by ID.
func (r *Repository) Get(ctx context.Context, id string) (user.User, error) {
	return r.getBy(ctx, `id`, id)
}

// GetByEmail retrieves a user by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getBy(ctx, `email`, user.NormalizeEmail(email))
}

func (r *Repository) getBy(ctx context.Context, column, value string) (user.User, error) {
	var rec row
	err := r.db.GetContext(ctx, &rec, `SELECT `+columns+` FROM users WHERE `+column+` = $1`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "select user")
	}
	return rec.toUser(), nil
}

// List fetches all users in insertion order.
func (r *Repository) List(ctx context.Context) ([]user.User, error) {
	var recs []row
	if err := r.db.SelectContext(ctx, &recs, `SELECT `+columns+` FROM users ORDER BY seq`); err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toUser())
	}
	return users, nil
}

// Update updates an existing user.
func (r *Repository) Update(ctx context.Context, u user.User) error {
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE users SET email = :email, password_hash = :password_hash, name = :name, role = :role WHERE id = :id`, toRow(u))
	if isUniqueViolation(err) {
		return user.ErrEmailTaken
	}
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	return expectOne(res)
}

// Delete removes a user by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	return expectOne(res)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
