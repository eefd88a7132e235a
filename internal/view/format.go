package view

import "github.com/shopspring/decimal"

const currencyPrefix = "$"

// FormatPrice renders an amount with two decimals and the currency prefix,
// independent of locale.
func FormatPrice(amount decimal.Decimal) string {
	return currencyPrefix + amount.StringFixed(2)
}
