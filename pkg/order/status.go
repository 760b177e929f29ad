package order

import (
	"fmt"
	"strings"

	"storefront/pkg/validation"
)

// Status is an order's position in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPacking    Status = "packing"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// happyPath is the linear progression; cancelled sits outside it.
var happyPath = []Status{
	StatusPending,
	StatusProcessing,
	StatusPacking,
	StatusDispatched,
	StatusDelivered,
}

// Statuses lists every status in display order.
func Statuses() []Status {
	return append(append([]Status(nil), happyPath...), StatusCancelled)
}

// ParseStatus accepts the wire form of a status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", validation.Invalid("status", fmt.Sprintf("must be one of %v", Statuses()))
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCancelled || s.step() >= 0
}

// Terminal reports whether no further progress is expected.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Active reports whether the order is still moving through fulfilment.
func (s Status) Active() bool {
	return s.Valid() && !s.Terminal()
}

// Next returns the following happy-path status, or false at the end of the
// path and for cancelled.
func (s Status) Next() (Status, bool) {
	i := s.step()
	if i < 0 || i == len(happyPath)-1 {
		return "", false
	}
	return happyPath[i+1], true
}

func (s Status) step() int {
	for i, st := range happyPath {
		if st == s {
			return i
		}
	}
	return -1
}

// Policy decides which status changes are allowed.
type Policy interface {
	Allow(from, to Status) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(from, to Status) bool

// Allow calls f.
func (f PolicyFunc) Allow(from, to Status) bool { return f(from, to) }

// PermissivePolicy allows any status from any status.
func PermissivePolicy() Policy {
	return PolicyFunc(func(from, to Status) bool { return true })
}

// StrictPolicy allows the next happy-path step, or cancellation, from a
// non-terminal status.
func StrictPolicy() Policy {
	return PolicyFunc(func(from, to Status) bool {
		if from.Terminal() {
			return false
		}
		if to == StatusCancelled {
			return true
		}
		next, ok := from.Next()
		return ok && next == to
	})
}

// PolicyByName resolves the ORDER_TRANSITION_POLICY setting.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "permissive":
		return PermissivePolicy(), nil
	case "strict":
		return StrictPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}
