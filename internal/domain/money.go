package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is applied when a tour package omits its currency.
const DefaultCurrency = "USD"

func init() {
	// Money is rendered as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
