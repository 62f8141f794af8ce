// Package money provides the two-decimal monetary value used by the ledger.
//
// Every Money is rounded to cents on construction and after every arithmetic
// step, so sums of shares never accumulate binary floating point noise.
// Rounding is half away from zero (half-up for positive amounts).
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of fraction digits every Money carries.
const Places = 2

var (
	ErrNotFinite = errors.New("money: amount must be a finite number")

	hundred = decimal.NewFromInt(100)
	epsilon = decimal.New(1, -Places)
)

// Money is an immutable amount in a single, implicit currency.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money { return Money{} }

// Epsilon is the tolerance under which two amounts are considered equal (0.01).
func Epsilon() Money { return Money{d: epsilon} }

// Cents creates a Money from an integer amount of cents: Cents(4900) == 49.00.
func Cents(c int64) Money { return Money{d: decimal.New(c, -Places)} }

// New rounds d to cents.
func New(d decimal.Decimal) Money { return Money{d: d.Round(Places)} }

// FromFloat converts a float amount, rejecting NaN and infinities.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrNotFinite
	}
	return New(decimal.NewFromFloat(f)), nil
}

// Parse reads a decimal string such as "33.34".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parsing %q: %w", s, err)
	}
	return New(d), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Arithmetic. Every result is rounded to cents.

func (m Money) Add(o Money) Money { return New(m.d.Add(o.d)) }

func (m Money) Sub(o Money) Money { return New(m.d.Sub(o.d)) }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Div divides by n and rounds the quotient to cents. Panics when n is zero.
func (m Money) Div(n int64) Money {
	if n == 0 {
		panic("money: division by zero")
	}
	return Money{d: m.d.DivRound(decimal.NewFromInt(n), Places)}
}

// Percent returns m × p / 100, rounded to cents.
func (m Money) Percent(p decimal.Decimal) Money {
	return Money{d: m.d.Mul(p).DivRound(hundred, Places)}
}

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if m.d.LessThan(o.d) {
		return m
	}
	return o
}

// Comparison

// Cmp compares exactly: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports exact equality to the cent.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// NearZero reports whether |m| is below the 0.01 epsilon.
func (m Money) NearZero() bool { return m.d.Abs().LessThan(epsilon) }

// NearlyEqual reports whether m and o differ by less than the epsilon.
func (m Money) NearlyEqual(o Money) bool { return m.Sub(o).NearZero() }

// IsPositive reports m > epsilon-noise, i.e. a real credit.
func (m Money) IsPositive() bool { return m.d.IsPositive() && !m.NearZero() }

// IsNegative reports m < -epsilon-noise, i.e. a real debit.
func (m Money) IsNegative() bool { return m.d.IsNegative() && !m.NearZero() }

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 is for display and tests only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders the amount with exactly two fraction digits, e.g. "33.30".
func (m Money) String() string { return m.d.StringFixed(Places) }

// MarshalJSON writes a bare JSON number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = New(d)
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("money: scanning: %w", err)
	}
	*m = New(d)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Sum adds values left to right, rounding after each step.
func Sum(values ...Money) Money {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
