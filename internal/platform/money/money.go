// Package money implements the scale-2 fixed-point amount type spec.md §6
// requires: wire amounts are decimal strings with exactly two fractional
// digits, internal arithmetic never touches float64. Money wraps
// shopspring/decimal, which performs arbitrary-precision decimal
// arithmetic rather than binary floating point.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const Scale = 2

var (
	ErrBadScale  = errors.New("amount must have exactly 2 fractional digits")
	ErrNotAmount = errors.New("amount is not a valid decimal number")
)

// Money is an exact, scale-2 decimal amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// New builds Money from whole cents (scaled integer units), the
// representation spec.md §6/§9 calls for internally.
func New(cents int64) Money {
	return Money{d: decimal.New(cents, -Scale)}
}

// Parse reads the wire representation: a decimal string with exactly two
// fractional digits. "10000", "0.1", "1.005" are all rejected.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrNotAmount
	}
	if d.Exponent() != -Scale {
		return Money{}, ErrBadScale
	}
	return Money{d: d}, nil
}

// MustParse panics on malformed input; only used for literals in tests and
// fixed configuration tables.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the canonical scale-2 wire form, e.g. "100.00".
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// Cents returns the scaled-integer representation (balance column storage,
// arithmetic that must stay exact integers).
func (m Money) Cents() int64 {
	return m.d.Shift(Scale).IntPart()
}

func (m Money) IsZero() bool          { return m.d.IsZero() }
func (m Money) IsNegative() bool      { return m.d.IsNegative() }
func (m Money) IsPositive() bool      { return m.d.IsPositive() }
func (m Money) GreaterThan(o Money) bool    { return m.d.GreaterThan(o.d) }
func (m Money) GreaterOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }
func (m Money) LessThan(o Money) bool       { return m.d.LessThan(o.d) }
func (m Money) Equal(o Money) bool          { return m.d.Equal(o.d) }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// MaxRepresentable is the ceiling spec.md §4.2 mandates for InternalCredit:
// 2^63 scaled units (cents) as a Money value.
var MaxRepresentable = New(1<<63 - 1)

// WouldOverflow reports whether m+delta would exceed MaxRepresentable.
func (m Money) WouldOverflow(delta Money) bool {
	return m.Add(delta).GreaterThan(MaxRepresentable)
}

// Value implements driver.Valuer so Money can be written directly as a
// NUMERIC(20,2) column via pgx.
func (m Money) Value() (driver.Value, error) {
	return m.d.StringFixed(Scale), nil
}

// Scan implements sql.Scanner for reading a NUMERIC(20,2) column back out.
func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	switch v := src.(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan money: %w", err)
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan money: %w", err)
		}
		d = parsed
	case nil:
		d = decimal.Zero
	default:
		return fmt.Errorf("scan money: unsupported source type %T", src)
	}
	m.d = d.Rescale(-Scale)
	return nil
}
