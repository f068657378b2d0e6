// Package money provides a fixed-precision decimal scalar for every
// monetary value the engine produces or consumes.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrPrecisionOverflow is returned when a Value's magnitude would
// exceed the 10^18 ceiling from spec.md §4.1. Callers that need to
// surface this through the engine's closed error taxonomy wrap it as
// model.NewError(model.KindPrecisionOverflow, ...); this package
// cannot import internal/model directly (model imports money).
var ErrPrecisionOverflow = errors.New("money: magnitude exceeds maximum representable value")

// DefaultScale is the number of fractional digits a Value rounds to
// at the output boundary (two cents) unless a caller asks for another
// currency precision.
const DefaultScale int32 = 2

// maxMagnitude is the overflow ceiling from spec.md §4.1 (10^18).
var maxMagnitude = decimal.New(1, 18)

// Value is a signed decimal scalar with at least 28 significant
// digits of precision, as decimal.Decimal already carries internally.
// Arithmetic never rounds except at Round/String boundaries, which use
// banker's rounding (round-half-to-even), matching decimal.Decimal's
// default RoundBank behavior.
type Value struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Value{d: decimal.Zero}

// New builds a Value from an integer number of currency minor units
// is not how this type is constructed; use NewFromFloat or Parse for
// that. New wraps a decimal.Decimal directly for internal use.
func New(d decimal.Decimal) Value {
	return Value{d: d}
}

// NewFromInt builds a Value from a whole number.
func NewFromInt(i int64) Value {
	return Value{d: decimal.NewFromInt(i)}
}

// NewFromFloat quantizes f to scale fractional digits (DefaultScale if
// scale <= 0) using banker's rounding, and fails with ErrPrecisionOverflow
// if the magnitude exceeds 10^18.
func NewFromFloat(f float64, scale int32) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("money: %w: non-finite float %v", ErrPrecisionOverflow, f)
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	d := decimal.NewFromFloat(f).RoundBank(scale)
	return checkOverflow(d)
}

// Parse reads a decimal string (as produced by String) into a Value.
func Parse(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return checkOverflow(d)
}

func checkOverflow(d decimal.Decimal) (Value, error) {
	if d.Abs().GreaterThan(maxMagnitude) {
		return Value{}, fmt.Errorf("money: magnitude %s exceeds 10^18: %w", d.String(), ErrPrecisionOverflow)
	}
	return Value{d: d}, nil
}

func (v Value) Add(o Value) Value { return Value{d: v.d.Add(o.d)} }
func (v Value) Sub(o Value) Value { return Value{d: v.d.Sub(o.d)} }
func (v Value) Neg() Value        { return Value{d: v.d.Neg()} }
func (v Value) Abs() Value        { return Value{d: v.d.Abs()} }

// Mul multiplies by a dimensionless decimal factor (e.g. a share
// count or a fraction), not by another Value — money times money has
// no monetary meaning in this engine.
func (v Value) Mul(factor decimal.Decimal) Value { return Value{d: v.d.Mul(factor)} }

// MulFloat multiplies by a raw float64 factor. Like the other
// arithmetic methods it does not round; rounding happens at
// Round/String. Used at simulator/optimizer boundaries where the
// factor itself came from float arithmetic.
func (v Value) MulFloat(factor float64) Value {
	return Value{d: v.d.Mul(decimal.NewFromFloat(factor))}
}

// Div divides by a dimensionless decimal factor.
func (v Value) Div(divisor decimal.Decimal) Value { return Value{d: v.d.Div(divisor)} }

// DivValue returns the dimensionless ratio v/o (e.g. market_value /
// total_value), which is meaningful and appears throughout weight
// computations.
func (v Value) DivValue(o Value) decimal.Decimal {
	if o.d.IsZero() {
		return decimal.Zero
	}
	return v.d.Div(o.d)
}

func (v Value) GreaterThan(o Value) bool       { return v.d.GreaterThan(o.d) }
func (v Value) GreaterThanOrEqual(o Value) bool { return v.d.GreaterThanOrEqual(o.d) }
func (v Value) LessThan(o Value) bool          { return v.d.LessThan(o.d) }
func (v Value) LessThanOrEqual(o Value) bool   { return v.d.LessThanOrEqual(o.d) }
func (v Value) Equal(o Value) bool             { return v.d.Equal(o.d) }
func (v Value) IsZero() bool                   { return v.d.IsZero() }
func (v Value) IsNegative() bool               { return v.d.IsNegative() }
func (v Value) IsPositive() bool               { return v.d.IsPositive() }

// Float64 converts to a 64-bit float for simulator/optimizer inner
// loops. Never used for portfolio-side arithmetic.
func (v Value) Float64() float64 {
	f, _ := v.d.Float64()
	return f
}

// Decimal exposes the underlying decimal.Decimal for callers that
// need dimensionless decimal math (weights, fractions).
func (v Value) Decimal() decimal.Decimal { return v.d }

// Round quantizes to scale fractional digits using banker's rounding.
func (v Value) Round(scale int32) Value {
	return Value{d: v.d.RoundBank(scale)}
}

// String renders with exactly DefaultScale fractional digits, per the
// serialization contract in spec.md §6.
func (v Value) String() string {
	return v.d.RoundBank(DefaultScale).StringFixed(DefaultScale)
}

// MarshalJSON emits the decimal-string encoding spec.md §6 requires.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: unmarshal %q: %w", s, err)
	}
	val, err := checkOverflow(d)
	if err != nil {
		return err
	}
	*v = val
	return nil
}
