// Package currency provides static-rate currency conversion and display
// helpers for the presentation layer. The analytics core never converts:
// it operates on raw amounts as given.
package currency

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// usdRates maps a currency code to its value in US dollars. Rates are a
// static table; live exchange-rate fetching is out of scope.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("1.09"),
	"GBP": decimal.RequireFromString("1.27"),
	"JPY": decimal.RequireFromString("0.0067"),
	"CHF": decimal.RequireFromString("1.13"),
	"CAD": decimal.RequireFromString("0.74"),
	"AUD": decimal.RequireFromString("0.66"),
	"INR": decimal.RequireFromString("0.012"),
}

// symbols maps a currency code to its display symbol.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF",
	"CAD": "C$",
	"AUD": "A$",
	"INR": "₹",
}

// Convert converts an amount between two supported currencies, rounded to
// two decimal places.
func Convert(amount float64, from, to string) (float64, error) {
	fromRate, ok := usdRates[from]
	if !ok {
		return 0, core.ErrUnknownCurrency
	}
	toRate, ok := usdRates[to]
	if !ok {
		return 0, core.ErrUnknownCurrency
	}

	converted := decimal.NewFromFloat(amount).Mul(fromRate).Div(toRate)
	return converted.Round(2).InexactFloat64(), nil
}

// Symbol returns the display symbol for a currency code, falling back to the
// code itself.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// Supported returns the supported currency codes in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(usdRates))
	for code := range usdRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
