package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/pkg/events"
	"storefront/pkg/logger"
	"storefront/pkg/validation"
)

// PlacedNote is the note on the history entry every new order starts with.
const PlacedNote = "Order placed"

// NewOrder is the checkout input.
type NewOrder struct {
	UserID          string           `json:"userId"`
	Items           []LineItem       `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}

// Validate rejects checkouts missing an owner, items or a storable positive
// total.
func (n NewOrder) Validate() error {
	var c validation.Collector
	c.Require("userId", n.UserID != "")
	c.Require("items", len(n.Items) > 0)
	c.Require("total", n.Total.IsPositive())
	if err := c.Err(); err != nil {
		return err
	}
	if err := validation.Money("total", n.Total); err != nil {
		return err
	}
	return validateItems(n.Items)
}

func validateItems(items []LineItem) error {
	for i, it := range items {
		if it.ProductID == "" {
			return validation.Required(fmt.Sprintf("items[%d].productId", i))
		}
		if it.Quantity <= 0 {
			return validation.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}
	return nil
}

// Patch replaces non-status fields. Nil fields are left untouched.
type Patch struct {
	Items           []LineItem       `json:"items,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	TrackingInfo    *TrackingInfo    `json:"trackingInfo,omitempty"`
}

func (p Patch) validate() error {
	if p.Items != nil {
		if len(p.Items) == 0 {
			return validation.Invalid("items", "must not be empty")
		}
		if err := validateItems(p.Items); err != nil {
			return err
		}
	}
	if p.Total != nil {
		if !p.Total.IsPositive() {
			return validation.Invalid("total", "must be positive")
		}
		return validation.Money("total", *p.Total)
	}
	return nil
}

func (p Patch) apply(o *Order) {
	if p.Items != nil {
		o.Items = append([]LineItem(nil), p.Items...)
	}
	if p.Total != nil {
		o.Total = *p.Total
	}
	if p.ShippingAddress != nil {
		sa := *p.ShippingAddress
		o.ShippingAddress = &sa
	}
	if p.TrackingInfo != nil {
		ti := *p.TrackingInfo
		o.TrackingInfo = &ti
	}
}

// Manager owns order creation, status transitions and the history ledger.
type Manager struct {
	repo       Repository
	policy     Policy
	dispatcher events.Dispatcher
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy sets the transition policy. The default is permissive.
func WithPolicy(p Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithDispatcher sets where domain events go. The default discards them.
// A failed dispatch never fails the operation that raised the event; it is
// logged when a logger is set with WithLogger.
func WithDispatcher(d events.Dispatcher) Option {
	return func(m *Manager) { m.dispatcher = d }
}

// WithLogger sets where dispatch failures are reported.
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides how order ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager returns a Manager over repo.
func NewManager(repo Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:       repo,
		policy:     PermissivePolicy(),
		dispatcher: events.Discard,
		now:        time.Now,
		newID:      func() string { return "order-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create stores a pending order with a one-entry history.
func (m *Manager) Create(ctx context.Context, in NewOrder) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}

	now := m.now().UTC()
	o := Order{
		ID:        m.newID(),
		UserID:    in.UserID,
		Items:     append([]LineItem(nil), in.Items...),
		Total:     in.Total,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		StatusHistory: []HistoryEntry{
			{Status: StatusPending, Timestamp: now, Note: PlacedNote},
		},
	}
	if in.ShippingAddress != nil {
		sa := *in.ShippingAddress
		o.ShippingAddress = &sa
	}

	if err := m.repo.Create(ctx, o); err != nil {
		return Order{}, err
	}

	m.dispatch(ctx, Created{OrderID: o.ID, UserID: o.UserID, Total: o.Total})
	return o, nil
}

// Get returns the order with id.
func (m *Manager) Get(ctx context.Context, id string) (Order, error) {
	return m.repo.Get(ctx, id)
}

// List returns every order, or only userID's when userID is set.
func (m *Manager) List(ctx context.Context, userID string) ([]Order, error) {
	if userID != "" {
		return m.repo.ListByUser(ctx, userID)
	}
	return m.repo.List(ctx)
}

// OrderIDs returns the ids of userID's orders in creation order.
func (m *Manager) OrderIDs(ctx context.Context, userID string) ([]string, error) {
	orders, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

// Transition appends a history entry for status and makes it current.
func (m *Manager) Transition(ctx context.Context, id string, status Status, note string) (Order, error) {
	if !status.Valid() {
		return Order{}, validation.Invalid("status", fmt.Sprintf("must be one of %v", Statuses()))
	}

	o, err := m.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	from := o.Status
	if !m.policy.Allow(from, status) {
		return Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, status)
	}

	now := m.now().UTC()
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{Status: status, Timestamp: now, Note: note})
	o.Status = status
	o.UpdatedAt = now

	if err := m.repo.Update(ctx, o); err != nil {
		return Order{}, err
	}

	m.dispatch(ctx, StatusChanged{
		OrderID: o.ID,
		UserID:  o.UserID,
		From:    from,
		To:      status,
		Note:    note,
		At:      now,
	})
	return o, nil
}

// Update replaces non-status fields without touching status or history.
func (m *Manager) Update(ctx context.Context, id string, p Patch) (Order, error) {
	if err := p.validate(); err != nil {
		return Order{}, err
	}

	o, err := m.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	p.apply(&o)
	o.UpdatedAt = m.now().UTC()

	if err := m.repo.Update(ctx, o); err != nil {
		return Order{}, err
	}

	m.dispatch(ctx, Updated{OrderID: o.ID})
	return o, nil
}

// Delete removes the order. The owner's order list follows automatically
// because it is derived from the repository.
func (m *Manager) Delete(ctx context.Context, id string) error {
	o, err := m.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}

	m.dispatch(ctx, Deleted{OrderID: o.ID, UserID: o.UserID})
	return nil
}

// Summary aggregates every stored order for the admin dashboard.
func (m *Manager) Summary(ctx context.Context) (Summary, error) {
	orders, err := m.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(orders), nil
}

// dispatch publishes event after the change it describes is stored, so a
// failure is reported but not returned.
func (m *Manager) dispatch(ctx context.Context, event events.Event) {
	if err := m.dispatcher.Dispatch(ctx, event); err != nil && m.log != nil {
		m.log.Error(ctx, "dispatch order event", "type", event.Type(), "error", err)
	}
}
