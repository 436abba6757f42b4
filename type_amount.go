package fxhub

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a strictly positive amount as typed by a user.
func ParseAmount(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalidf("amount %q is not a number", s)
	}
	if !v.IsPositive() {
		return decimal.Zero, invalidf("amount must be positive, got %s", v)
	}
	return v, nil
}
