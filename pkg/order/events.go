package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Created is dispatched after checkout stores a new order.
type Created struct {
	OrderID string          `json:"orderId"`
	UserID  string          `json:"userId"`
	Total   decimal.Decimal `json:"total"`
}

func (Created) Type() string { return "order.created" }

// StatusChanged is dispatched after every transition.
type StatusChanged struct {
	OrderID string    `json:"orderId"`
	UserID  string    `json:"userId"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	Note    string    `json:"note,omitempty"`
	At      time.Time `json:"at"`
}

func (StatusChanged) Type() string { return "order.status_changed" }

// Updated is dispatched after non-status fields change.
type Updated struct {
	OrderID string `json:"orderId"`
}

func (Updated) Type() string { return "order.updated" }

// Deleted is dispatched after an order is removed.
type Deleted struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

func (Deleted) Type() string { return "order.deleted" }
