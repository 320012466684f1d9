// Package billing holds the pure invoice rules: derived totals and the
// status lifecycle. Nothing in here touches storage or transport.
package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on user supplied numbers. Amounts stay below one quadrillion and
// carry at most six decimal places.
const (
	MaxIntegerDigits = 15
	MaxDecimalPlaces = 6
)

var hundred = decimal.NewFromInt(100)

// Totals holds the values derived from an amount and a VAT percentage.
type Totals struct {
	Amount        decimal.Decimal `json:"amount"`
	VATPercentage decimal.Decimal `json:"vat_percentage"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// CalculateTotals derives vat_amount and total_amount.
//
// The arithmetic is exact: no rounding is applied, so recomputing from the
// persisted amount and percentage always yields the persisted totals.
func CalculateTotals(amount, vatPercentage decimal.Decimal) (Totals, error) {
	if amount.IsNegative() {
		return Totals{}, newInputError("amount", amount.String(), "must not be negative")
	}
	if vatPercentage.IsNegative() {
		return Totals{}, newInputError("vat_percentage", vatPercentage.String(), "must not be negative")
	}

	vat := amount.Mul(vatPercentage).Div(hundred)
	return Totals{
		Amount:        amount,
		VATPercentage: vatPercentage,
		VATAmount:     vat,
		TotalAmount:   amount.Add(vat),
	}, nil
}

// ParseNumber parses a user supplied decimal of either sign within the
// MaxIntegerDigits and MaxDecimalPlaces bounds.
func ParseNumber(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, newInputError(field, raw, "is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, newInputError(field, raw, "must be a number")
	}
	// Zero is normalized before any formatting: "0e99999999" is zero but
	// rendering it would expand the exponent.
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.Exponent() < -MaxDecimalPlaces {
		return decimal.Zero, newInputError(field, raw,
			fmt.Sprintf("must have at most %d decimal places", MaxDecimalPlaces))
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > MaxIntegerDigits {
		return decimal.Zero, newInputError(field, raw,
			fmt.Sprintf("must have at most %d digits before the decimal point", MaxIntegerDigits))
	}
	return d, nil
}

// ParseAmount parses a user supplied non-negative decimal.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := ParseNumber(field, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, newInputError(field, raw, "must not be negative")
	}
	return d, nil
}

// ParseTotals parses both inputs and computes totals in one step. This is
// what the preview and the write paths share.
func ParseTotals(rawAmount, rawVATPercentage string) (Totals, error) {
	amount, err := ParseAmount("amount", rawAmount)
	if err != nil {
		return Totals{}, err
	}
	vatPercentage, err := ParseAmount("vat_percentage", rawVATPercentage)
	if err != nil {
		return Totals{}, err
	}
	return CalculateTotals(amount, vatPercentage)
}
