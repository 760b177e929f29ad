// Package order models customer orders and their status lifecycle.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product and quantity in an order.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ShippingAddress is where a dispatched order goes.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// TrackingInfo identifies a shipment with the carrier.
type TrackingInfo struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

// HistoryEntry records one status an order has held.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Order represents a customer purchase order. Status always equals the
// status of the last StatusHistory entry.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Items           []LineItem       `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	Status          Status           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	TrackingInfo    *TrackingInfo    `json:"trackingInfo,omitempty"`
	StatusHistory   []HistoryEntry   `json:"statusHistory"`
}

// Clone returns a deep copy so stored orders never share slices or
// pointers with callers.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]LineItem(nil), o.Items...)
	out.StatusHistory = append([]HistoryEntry(nil), o.StatusHistory...)
	if o.ShippingAddress != nil {
		sa := *o.ShippingAddress
		out.ShippingAddress = &sa
	}
	if o.TrackingInfo != nil {
		ti := *o.TrackingInfo
		out.TrackingInfo = &ti
	}
	return out
}

// Repository defines behavior for persisting orders. List results are in
// insertion order.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when the configured policy rejects a
	// status change.
	ErrInvalidTransition = errors.New("status transition not allowed")
)
