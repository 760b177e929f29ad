// Package validation holds the error returned when input is rejected before
// any store mutation.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Error reports the offending fields of a rejected request.
type Error struct {
	Fields []string
	Reason string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return strings.Join(e.Fields, ", ") + " " + e.Reason
}

// Required builds the error for missing mandatory fields.
func Required(fields ...string) *Error {
	reason := "is required"
	if len(fields) > 1 {
		reason = "are required"
	}
	return &Error{Fields: fields, Reason: reason}
}

// Invalid builds the error for a field holding an unacceptable value.
func Invalid(field, reason string) *Error {
	return &Error{Fields: []string{field}, Reason: reason}
}

// Collector accumulates missing fields so one error names all of them.
type Collector struct {
	missing []string
}

// Require records field as missing when ok is false.
func (c *Collector) Require(field string, ok bool) {
	if !ok {
		c.missing = append(c.missing, field)
	}
}

// Err returns nil when nothing was missing.
func (c *Collector) Err() error {
	if len(c.missing) == 0 {
		return nil
	}
	return Required(c.missing...)
}

// moneyLimit is the smallest magnitude a NUMERIC(12, 2) column rejects.
var moneyLimit = decimal.New(1, 10)

// Money checks that d is storable as a currency amount: cents precision and
// below 10^10 in magnitude.
func Money(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return Invalid(field, "must have at most 2 decimal places")
	}
	if d.Abs().GreaterThanOrEqual(moneyLimit) {
		return Invalid(field, "must be less than "+moneyLimit.String())
	}
	return nil
}
