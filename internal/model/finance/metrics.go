package finance

import (
	"github.com/shopspring/decimal"
)

const percentScale = 100

// PctChange returns the relative change between two period sums as a display
// percentage. A zero or negative previous value yields exactly 0, never an
// error or infinity, regardless of cur. Savings can legitimately go negative,
// so the rule applies uniformly to income, expenses, savings and balance.
func PctChange(cur, prev decimal.Decimal) float64 {
	if prev.Sign() <= 0 {
		return 0
	}
	return cur.Sub(prev).Div(prev).InexactFloat64() * percentScale
}

// SavingsRate returns savings as a percentage of income, 0 when income is
// not positive.
func SavingsRate(savings, income decimal.Decimal) float64 {
	if income.Sign() <= 0 {
		return 0
	}
	return savings.Div(income).InexactFloat64() * percentScale
}

// SavingsRateChange is the absolute percentage-point difference between two
// rates. Unlike PctChange it is NOT a relative change; the two must not be
// unified. It can be negative even when absolute savings improved, whenever
// income grew faster.
func SavingsRateChange(curRate, prevRate float64) float64 {
	return curRate - prevRate
}
