package utils

import "math"

// Round2 rounds a rupee amount to 2 decimal places. All balances and ledger
// amounts pass through this before being persisted.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
