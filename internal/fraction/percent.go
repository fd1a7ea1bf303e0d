package fraction

import "math/big"

var hundred = Fraction{num: big.NewInt(100), den: big.NewInt(1)}

// Percent is a Fraction rendered as a percentage.
type Percent struct {
	Fraction
}

// NewPercent creates num/den as a percent, e.g. NewPercent(50, 10000) is 0.5%.
func NewPercent(num, den int64) Percent {
	return Percent{NewInt64(num, den)}
}

// PercentFrom wraps an existing fraction.
func PercentFrom(f Fraction) Percent {
	return Percent{f}
}

// ToSignificant formats the percentage (value * 100). Zero digits means 5.
func (p Percent) ToSignificant(digits int, rounding Rounding) (string, error) {
	if digits == 0 {
		digits = 5
	}
	return p.Fraction.Mul(hundred).ToSignificant(digits, rounding)
}

// ToFixed formats the percentage (value * 100) with places decimals.
func (p Percent) ToFixed(places int, rounding Rounding) (string, error) {
	return p.Fraction.Mul(hundred).ToFixed(places, rounding)
}

// String returns the percentage with two decimals.
func (p Percent) String() string {
	s, err := p.ToFixed(2, RoundHalfUp)
	if err != nil {
		return "n/a"
	}
	return s + "%"
}
