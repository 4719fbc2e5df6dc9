// Package core holds the team-finance domain: money, recurrence rules and the
// contribution aggregates together with the events they record.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in the currency's minor unit (cents). Values are
// immutable; arithmetic returns a new Money.
type Money struct {
	Minor    int64
	Currency Currency
}

// NewMoney builds an owed amount. Negative amounts are rejected.
func NewMoney(minor int64, currency Currency) (Money, error) {
	if minor < 0 {
		return Money{}, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, minor)
	}
	if !currency.Valid() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(currency))
	}
	return Money{Minor: minor, Currency: currency}, nil
}

// Zero returns an empty amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Minor: m.Minor + other.Minor, Currency: m.Currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Minor: m.Minor - other.Minor, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool { return m.Minor == 0 }

// Decimal returns the amount in major units, e.g. 1.50 for 150 cents.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Minor, -2)
}

// Format renders the amount with two decimals and the currency symbol:
// "50.00 €", "$1.50", "£1.50".
func (m Money) Format() string {
	return m.Currency.place(m.Decimal().StringFixed(2))
}

func (m Money) String() string { return m.Format() }

// Validate reports whether m is a usable owed amount.
func (m Money) Validate() error {
	if m.Minor < 0 {
		return ErrInvalidAmount
	}
	if !m.Currency.Valid() {
		return ErrUnknownCurrency
	}
	return nil
}

// ParseAmount converts user input to minor units.
//
// Integer strings are already minor units ("5000" -> 5000). Strings with a
// decimal separator are major units and are rounded half-up to cents
// ("12.345" -> 1235, "12,34" -> 1234). Negative values are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !strings.ContainsAny(s, ".,") {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		return v, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return cents.IntPart(), nil
}
