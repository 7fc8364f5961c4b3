package statutory

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

func dec(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func money(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

func percentOf(base decimal.Decimal, rate float64) decimal.Decimal {
	return base.Mul(dec(rate)).Div(hundred)
}

// effectiveRate returns part as a percentage of whole, two decimals.
func effectiveRate(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return money(part.Div(whole).Mul(hundred))
}
