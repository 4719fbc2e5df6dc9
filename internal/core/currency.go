package core

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code supported by the ledger.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
)

type currencyFormat struct {
	symbol string
	suffix bool // symbol after the amount, separated by a space
}

var currencyFormats = map[Currency]currencyFormat{
	EUR: {symbol: "€", suffix: true},
	USD: {symbol: "$"},
	GBP: {symbol: "£"},
}

// Currencies lists the supported codes in a stable order.
func Currencies() []Currency {
	return []Currency{EUR, USD, GBP}
}

// ParseCurrency accepts a currency code in any letter case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
	}
	return c, nil
}

func (c Currency) Valid() bool {
	_, ok := currencyFormats[c]
	return ok
}

func (c Currency) Symbol() string {
	return currencyFormats[c].symbol
}

func (c Currency) String() string { return string(c) }

// place puts the symbol around an already formatted number.
func (c Currency) place(number string) string {
	f, ok := currencyFormats[c]
	if !ok {
		return number + " " + string(c)
	}
	if f.suffix {
		return number + " " + f.symbol
	}
	if strings.HasPrefix(number, "-") {
		return "-" + f.symbol + number[1:]
	}
	return f.symbol + number
}
