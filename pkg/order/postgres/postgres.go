// Package postgres persists orders in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/pkg/database"
	"storefront/pkg/order"
)

const columns = `id, user_id, items, total, status, created_at, updated_at, shipping_address, tracking_info, status_history`

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

// New creates a PostgreSQL repository.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	Items           database.JSONB  `db:"items"`
	Total           decimal.Decimal `db:"total"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	ShippingAddress database.JSONB  `db:"shipping_address"`
	TrackingInfo    database.JSONB  `db:"tracking_info"`
	StatusHistory   database.JSONB  `db:"status_history"`
}

func toRow(o order.Order) (row, error) {
	r := row{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	var err error
	if r.Items, err = marshal(o.Items); err != nil {
		return row{}, err
	}
	if r.StatusHistory, err = marshal(o.StatusHistory); err != nil {
		return row{}, err
	}
	if o.ShippingAddress != nil {
		if r.ShippingAddress, err = marshal(o.ShippingAddress); err != nil {
			return row{}, err
		}
	}
	if o.TrackingInfo != nil {
		if r.TrackingInfo, err = marshal(o.TrackingInfo); err != nil {
			return row{}, err
		}
	}
	return r, nil
}

func (r row) toOrder() (order.Order, error) {
	o := order.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Total:     r.Total,
		Status:    order.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Items, &o.Items); err != nil {
		return order.Order{}, errors.Wrapf(err, "decode items of order %s", r.ID)
	}
	if err := json.Unmarshal(r.StatusHistory, &o.StatusHistory); err != nil {
		return order.Order{}, errors.Wrapf(err, "decode history of order %s", r.ID)
	}
	if r.ShippingAddress != nil {
		o.ShippingAddress = new(order.ShippingAddress)
		if err := json.Unmarshal(r.ShippingAddress, o.ShippingAddress); err != nil {
			return order.Order{}, errors.Wrapf(err, "decode shipping address of order %s", r.ID)
		}
	}
	if r.TrackingInfo != nil {
		o.TrackingInfo = new(order.TrackingInfo)
		if err := json.Unmarshal(r.TrackingInfo, o.TrackingInfo); err != nil {
			return order.Order{}, errors.Wrapf(err, "decode tracking info of order %s", r.ID)
		}
	}
	return o, nil
}

func marshal(v any) (database.JSONB, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode json column")
	}
	return b, nil
}

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, o order.Order) error {
	rec, err := toRow(o)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `INSERT INTO orders (`+columns+`)
		VALUES (:id, :user_id, :items, :total, :status, :created_at, :updated_at, :shipping_address, :tracking_info, :status_history)`, rec)
	return errors.Wrap(err, "insert order")
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	var rec row
	err := r.db.GetContext(ctx, &rec, `SELECT `+columns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, errors.Wrap(err, "select order")
	}
	return rec.toOrder()
}

// List fetches all orders in insertion order.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	return r.selectOrders(ctx, `SELECT `+columns+` FROM orders ORDER BY seq`)
}

// ListByUser fetches userID's orders in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.selectOrders(ctx, `SELECT `+columns+` FROM orders WHERE user_id = $1 ORDER BY seq`, userID)
}

func (r *Repository) selectOrders(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	var recs []row
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	orders := make([]order.Order, 0, len(recs))
	for _, rec := range recs {
		o, err := rec.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Update updates an existing order.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	rec, err := toRow(o)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, `UPDATE orders SET
		user_id = :user_id, items = :items, total = :total, status = :status,
		updated_at = :updated_at, shipping_address = :shipping_address,
		tracking_info = :tracking_info, status_history = :status_history
		WHERE id = :id`, rec)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	return expectOne(res)
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}
