package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxAmount bounds every stored amount, matching a DECIMAL(10,2) column.
var MaxAmount = Money{Decimal: decimal.New(9999999999, -2)}

// Money is a fixed-point amount with two fractional digits. Storage keeps integer cents.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

func MoneyFromCents(cents int64) Money { return Money{Decimal: decimal.New(cents, -2)} }

// MustMoney parses a literal amount; it panics on malformed input and is meant for fixtures.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

// Cents returns the amount in integer cents, rounding half away from zero past two digits.
func (m Money) Cents() int64 {
	return m.Round(2).Shift(2).IntPart()
}

// InRange reports whether |m| fits the storable range.
func (m Money) InRange() bool {
	return m.Abs().LessThanOrEqual(MaxAmount.Decimal)
}

// HasCents reports whether m carries at most two fractional digits.
func (m Money) HasCents() bool {
	return m.Decimal.Equal(m.Round(2))
}

func (m Money) Add(o Money) Money  { return Money{Decimal: m.Decimal.Add(o.Decimal)} }
func (m Money) Sub(o Money) Money  { return Money{Decimal: m.Decimal.Sub(o.Decimal)} }
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

func (m Money) Times(qty int) Money {
	return Money{Decimal: m.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) String() string { return m.StringFixed(2) }

// MarshalJSON writes a JSON number with exactly two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(b)
}

// LineTotal is quantity x unit price, exact.
func LineTotal(qty int, unitPrice Money) Money {
	return unitPrice.Times(qty)
}

// SaleTotal is sum(quantity x unit_price) - discount + tax, accumulated without intermediate rounding.
func SaleTotal(lines []SaleLine, discount, tax Money) Money {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return Money{Decimal: sum.Sub(discount.Decimal).Add(tax.Decimal)}
}

// MarginPercent returns profit / revenue x 100 rounded to two places, or 0 when revenue is not positive.
func MarginPercent(profit, revenue Money) float64 {
	if !revenue.IsPositive() {
		return 0
	}
	return profit.Div(revenue.Decimal).Mul(hundred).Round(2).InexactFloat64()
}
