package domain

import "github.com/shopspring/decimal"

// Round2 rounds a quantity or amount to the two decimal places every
// persisted value is stored with.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
