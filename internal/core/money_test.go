package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Minor: 5000, Currency: EUR}, "50.00 €"},
		{Money{Minor: 150, Currency: EUR}, "1.50 €"},
		{Money{Minor: 150, Currency: USD}, "$1.50"},
		{Money{Minor: 150, Currency: GBP}, "£1.50"},
		{Money{Minor: 5, Currency: USD}, "$0.05"},
		{Money{Minor: 0, Currency: EUR}, "0.00 €"},
		{Money{Minor: -250, Currency: USD}, "-$2.50"},
		{Money{Minor: -250, Currency: EUR}, "-2.50 €"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.m.Format())
		})
	}
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(100, USD)
	require.NoError(t, err)
	assert.Equal(t, Money{Minor: 100, Currency: USD}, m)

	_, err = NewMoney(-1, USD)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewMoney(1, Currency("JPY"))
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestMoneyAddSubtractRoundTrip(t *testing.T) {
	amounts := []int64{0, 1, 99, 5000, 123456789}
	for _, c := range Currencies() {
		for _, a := range amounts {
			for _, b := range amounts {
				x := Money{Minor: a, Currency: c}
				y := Money{Minor: b, Currency: c}
				sum, err := x.Add(y)
				require.NoError(t, err)
				back, err := sum.Subtract(y)
				require.NoError(t, err)
				if back != x {
					t.Fatalf("%v + %v - %v = %v", x, y, y, back)
				}
			}
		}
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	eur := Money{Minor: 100, Currency: EUR}
	usd := Money{Minor: 100, Currency: USD}

	_, err := eur.Add(usd)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
	_, err = usd.Subtract(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"5000", 5000, true},
		{"0", 0, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, EUR, c)
	assert.Equal(t, "€", c.Symbol())

	_, err = ParseCurrency("XYZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
