// Package core defines the transaction record model and its validation.
//
// This file handles parsing monetary amounts from user input. Amounts are
// decimal values (github.com/shopspring/decimal) so summation order never
// affects totals.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into an Amount.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Only strictly
// positive values are valid; a sign prefix, zero, or garbage input yields a
// *ValidationError on the amount field.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must not be empty"}
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be an unsigned decimal"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be a decimal number"}
	}
	if d.Sign() <= 0 {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	return d, nil
}
