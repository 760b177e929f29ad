// Package postgres persists products in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"storefront/pkg/product"
)

const columns = `id, name, price, image, description, volume, type`

// Repository persists products in PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

// New creates a PostgreSQL repository.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, p product.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Price, p.Image, p.Description, p.Volume, p.Type)
	return errors.Wrap(err, "insert product")
}

// Get retrieves a product by ID.
func (r *Repository) Get(ctx context.Context, id string) (product.Product, error) {
	var p product.Product
	err := r.db.QueryRowxContext(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Description, &p.Volume, &p.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, product.ErrNotFound
	}
	if err != nil {
		return product.Product{}, errors.Wrap(err, "select product")
	}
	return p, nil
}

// List fetches all products in insertion order.
func (r *Repository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+columns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Description, &p.Volume, &p.Type); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, errors.Wrap(rows.Err(), "iterate products")
}

// Update updates an existing product.
func (r *Repository) Update(ctx context.Context, p product.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $2, price = $3, image = $4, description = $5, volume = $6, type = $7 WHERE id = $1`,
		p.ID, p.Name, p.Price, p.Image, p.Description, p.Volume, p.Type)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	return expectOne(res)
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return product.ErrNotFound
	}
	return nil
}
