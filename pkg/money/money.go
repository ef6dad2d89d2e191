// Package money keeps statement amounts in currency minor units (halalas for
// SAR) and parses the many ways bank exports print an amount.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ISO-4217 codes seen on Gulf statements.
const (
	SAR = "SAR"
	AED = "AED"
	USD = "USD"

	DefaultCurrency = SAR
)

// currency resolves code, falling back to DefaultCurrency for unknown codes.
func currency(code string) *money.Currency {
	if c := money.GetCurrency(code); c != nil {
		return c
	}
	return money.GetCurrency(DefaultCurrency)
}

func toMinor(v decimal.Decimal, c *money.Currency) int64 {
	return v.Shift(int32(c.Fraction)).Round(0).IntPart()
}

func fromMinor(minor int64, c *money.Currency) decimal.Decimal {
	return decimal.New(minor, -int32(c.Fraction))
}

// Amount is a value rounded to its currency's minor unit. The zero Amount
// prints as "0.00".
type Amount struct {
	m *money.Money
}

// FromFloat rounds v to the minor unit of code.
func FromFloat(v float64, code string) Amount {
	c := currency(code)
	return Amount{m: money.New(toMinor(decimal.NewFromFloat(v), c), c.Code)}
}

// Minor returns the value in minor units.
func (a Amount) Minor() int64 {
	if a.m == nil {
		return 0
	}
	return a.m.Amount()
}

func (a Amount) Currency() string {
	if a.m == nil {
		return ""
	}
	return a.m.Currency().Code
}

// String renders the plain value with the currency's decimals ("5000.00").
func (a Amount) String() string {
	if a.m == nil {
		return "0.00"
	}
	c := a.m.Currency()
	return fromMinor(a.m.Amount(), c).StringFixed(int32(c.Fraction))
}

// Display renders the value with its currency symbol for people.
func (a Amount) Display() string {
	if a.m == nil {
		return "0.00"
	}
	return a.m.Display()
}

// Signed formats a value with an explicit sign and two decimals, the way
// statement lines are rendered for narrative prompts ("+5000.00", "-12.50").
func Signed(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if v > 0 {
		return "+" + s
	}
	return s
}

// Accumulator sums amounts in minor units so that long statements do not
// drift.
type Accumulator struct {
	currency *money.Currency
	minor    int64
}

func NewAccumulator(code string) *Accumulator {
	return &Accumulator{currency: currency(code)}
}

// Add rounds v to the minor unit and adds it.
func (a *Accumulator) Add(v float64) {
	a.minor += toMinor(decimal.NewFromFloat(v), a.currency)
}

// Total returns the running total.
func (a *Accumulator) Total() float64 {
	return fromMinor(a.minor, a.currency).InexactFloat64()
}
