package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "status is required", Required("status").Error())
	assert.Equal(t, "userId, items are required", Required("userId", "items").Error())
	assert.Equal(t, "total must be positive", Invalid("total", "must be positive").Error())
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Require("email", true)
	assert.NoError(t, c.Err())

	c.Require("name", false)
	c.Require("password", false)
	assert.EqualError(t, c.Err(), "name, password are required")
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"300", true},
		{"300.5", true},
		{"300.50", true},
		{"300.500", true},
		{"9999999999.99", true},
		{"-9999999999.99", true},
		{"300.555", false},
		{"0.001", false},
		{"10000000000", false},
		{"-10000000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Money("total", decimal.RequireFromString(tt.in))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{"total"}, verr.Fields)
		})
	}
}
