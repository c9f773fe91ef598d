package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in euro cents. All engine arithmetic is integer;
// decimals only appear at the boundary.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string ("123.45", "-7") to cents.
// Fractions beyond cents are rounded half away from zero.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// MoneyFromFloat converts a unit amount (euros) to cents.
func MoneyFromFloat(v float64) Money {
	return Money{Cents: decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Abs returns the magnitude; outflow values are normalized through it at the
// boundary.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// LessThan is a strict comparison: equal amounts are not less.
func (m Money) LessThan(o Money) bool { return m.Cents < o.Cents }

func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// MarshalJSON emits the unit amount as a JSON number ("20.00" -> 20).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.New(m.Cents, -2).String()), nil
}

// UnmarshalJSON accepts both JSON numbers and decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		m.Cents = 0
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	m.Cents = parsed.Cents
	return nil
}
