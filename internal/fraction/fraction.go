// Package fraction provides an exact rational number on top of math/big.
// Values are never reduced; equality and ordering use cross multiplication.
// decimal.Decimal is only used to render the final rounded digits.
package fraction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidDigits   = errors.New("fraction: invalid digit count")
	ErrZeroDenominator = errors.New("fraction: zero denominator")
)

// Rounding selects how formatted output is rounded.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundHalfUp
	RoundUp
)

var (
	one = big.NewInt(1)
	ten = big.NewInt(10)
)

// Fraction is an immutable numerator/denominator pair.
type Fraction struct {
	num *big.Int
	den *big.Int
}

// New creates a Fraction. A nil denominator means 1.
func New(num, den *big.Int) Fraction {
	if num == nil {
		num = new(big.Int)
	}
	if den == nil {
		den = one
	}
	return Fraction{
		num: new(big.Int).Set(num),
		den: new(big.Int).Set(den),
	}
}

// FromInt creates the fraction n/1.
func FromInt(n *big.Int) Fraction {
	return New(n, nil)
}

// NewInt64 creates num/den from int64 values.
func NewInt64(num, den int64) Fraction {
	return Fraction{num: big.NewInt(num), den: big.NewInt(den)}
}

// Numerator returns a copy of the numerator.
func (f Fraction) Numerator() *big.Int {
	if f.num == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.num)
}

// Denominator returns a copy of the denominator.
func (f Fraction) Denominator() *big.Int {
	if f.den == nil {
		return new(big.Int).Set(one)
	}
	return new(big.Int).Set(f.den)
}

func (f Fraction) n() *big.Int {
	if f.num == nil {
		return new(big.Int)
	}
	return f.num
}

func (f Fraction) d() *big.Int {
	if f.den == nil {
		return one
	}
	return f.den
}

// Quotient performs floor division. It panics on a zero denominator.
func (f Fraction) Quotient() *big.Int {
	return floorDiv(f.n(), f.d())
}

// Remainder returns the remainder after floor division, over the same denominator.
func (f Fraction) Remainder() Fraction {
	q := floorDiv(f.n(), f.d())
	r := new(big.Int).Mul(q, f.d())
	r.Sub(f.n(), r)
	return Fraction{num: r, den: new(big.Int).Set(f.d())}
}

// Invert swaps numerator and denominator.
func (f Fraction) Invert() Fraction {
	return Fraction{num: new(big.Int).Set(f.d()), den: new(big.Int).Set(f.n())}
}

// Add returns f + o.
func (f Fraction) Add(o Fraction) Fraction {
	if f.d().Cmp(o.d()) == 0 {
		return Fraction{num: new(big.Int).Add(f.n(), o.n()), den: new(big.Int).Set(f.d())}
	}
	a := new(big.Int).Mul(f.n(), o.d())
	b := new(big.Int).Mul(o.n(), f.d())
	return Fraction{num: a.Add(a, b), den: new(big.Int).Mul(f.d(), o.d())}
}

// Sub returns f - o.
func (f Fraction) Sub(o Fraction) Fraction {
	if f.d().Cmp(o.d()) == 0 {
		return Fraction{num: new(big.Int).Sub(f.n(), o.n()), den: new(big.Int).Set(f.d())}
	}
	a := new(big.Int).Mul(f.n(), o.d())
	b := new(big.Int).Mul(o.n(), f.d())
	return Fraction{num: a.Sub(a, b), den: new(big.Int).Mul(f.d(), o.d())}
}

// Mul returns f * o.
func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{
		num: new(big.Int).Mul(f.n(), o.n()),
		den: new(big.Int).Mul(f.d(), o.d()),
	}
}

// MulInt returns f * n.
func (f Fraction) MulInt(n *big.Int) Fraction {
	return Fraction{num: new(big.Int).Mul(f.n(), n), den: new(big.Int).Set(f.d())}
}

// Div returns f / o.
func (f Fraction) Div(o Fraction) Fraction {
	return Fraction{
		num: new(big.Int).Mul(f.n(), o.d()),
		den: new(big.Int).Mul(f.d(), o.n()),
	}
}

// Cmp compares f and o. Returns -1 if f < o, 0 if equal, 1 if f > o.
func (f Fraction) Cmp(o Fraction) int {
	a := new(big.Int).Mul(f.n(), o.d())
	b := new(big.Int).Mul(o.n(), f.d())
	c := a.Cmp(b)
	// cross multiplication flips the order when exactly one denominator is negative
	if f.d().Sign()*o.d().Sign() < 0 {
		c = -c
	}
	return c
}

// LessThan returns true if f < o.
func (f Fraction) LessThan(o Fraction) bool { return f.Cmp(o) < 0 }

// EqualTo returns true if f == o.
func (f Fraction) EqualTo(o Fraction) bool { return f.Cmp(o) == 0 }

// GreaterThan returns true if f > o.
func (f Fraction) GreaterThan(o Fraction) bool { return f.Cmp(o) > 0 }

// Sign returns -1, 0 or 1.
func (f Fraction) Sign() int {
	return f.n().Sign() * f.d().Sign()
}

// IsZero returns true if the numerator is zero.
func (f Fraction) IsZero() bool {
	return f.n().Sign() == 0
}

// ToSignificant formats the value with the given number of significant digits.
// Trailing zeros after the decimal point are dropped.
func (f Fraction) ToSignificant(digits int, rounding Rounding) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("%w: %d is not positive", ErrInvalidDigits, digits)
	}
	if f.d().Sign() == 0 {
		return "", ErrZeroDenominator
	}
	if f.n().Sign() == 0 {
		return "0", nil
	}

	neg := f.Sign() < 0
	a := new(big.Int).Abs(f.n())
	b := new(big.Int).Abs(f.d())

	// exp = floor(log10(a/b))
	exp := len(a.String()) - len(b.String())
	if exp >= 0 {
		if a.Cmp(new(big.Int).Mul(b, pow10(exp))) < 0 {
			exp--
		}
	} else if new(big.Int).Mul(a, pow10(-exp)).Cmp(b) < 0 {
		exp--
	}

	places := digits - 1 - exp
	if places >= 0 {
		a.Mul(a, pow10(places))
	} else {
		b.Mul(b, pow10(-places))
	}
	q := roundQuo(a, b, rounding)
	if neg {
		q.Neg(q)
	}

	return decimal.NewFromBigInt(q, int32(-places)).String(), nil
}

// ToFixed formats the value with exactly places decimals.
func (f Fraction) ToFixed(places int, rounding Rounding) (string, error) {
	if places < 0 {
		return "", fmt.Errorf("%w: %d is negative", ErrInvalidDigits, places)
	}
	if f.d().Sign() == 0 {
		return "", ErrZeroDenominator
	}

	neg := f.Sign() < 0
	a := new(big.Int).Abs(f.n())
	b := new(big.Int).Abs(f.d())
	a.Mul(a, pow10(places))

	q := roundQuo(a, b, rounding)
	if neg && q.Sign() != 0 {
		q.Neg(q)
	}

	return decimal.NewFromBigInt(q, int32(-places)).StringFixed(int32(places)), nil
}

// String returns "num/den".
func (f Fraction) String() string {
	return f.n().String() + "/" + f.d().String()
}

// floorDiv rounds toward negative infinity, unlike big.Int.Quo (toward zero)
// and big.Int.Div (Euclidean).
func floorDiv(n, d *big.Int) *big.Int {
	if d.Sign() == 0 {
		panic(ErrZeroDenominator)
	}
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 && r.Sign() != d.Sign() {
		q.Sub(q, one)
	}
	return q
}

// roundQuo divides two non-negative integers using the rounding mode.
func roundQuo(a, b *big.Int, rounding Rounding) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() == 0 {
		return q
	}
	switch rounding {
	case RoundUp:
		q.Add(q, one)
	case RoundHalfUp:
		if new(big.Int).Lsh(r, 1).Cmp(b) >= 0 {
			q.Add(q, one)
		}
	}
	return q
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}
