package asset

import (
	"fmt"
	"math/big"

	"github.com/fd1az/v2-router/internal/fraction"
)

// Price is the exchange rate between two currencies, in raw units.
// raw = numerator/denominator quote units per base unit; the adjusted value
// accounts for the decimals of both sides.
// Example: 1 WETH (18 decimals) = 2000 USDC (6 decimals) has raw 2000e6/1e18.
type Price struct {
	base   *Currency
	quote  *Currency
	raw    fraction.Fraction
	scalar fraction.Fraction
}

// NewPrice creates a price of base in terms of quote.
// denominator is the base raw amount, numerator the quote raw amount.
func NewPrice(base, quote *Currency, denominator, numerator *big.Int) Price {
	return Price{
		base:   base,
		quote:  quote,
		raw:    fraction.New(numerator, denominator),
		scalar: fraction.New(pow10(base.Decimals()), pow10(quote.Decimals())),
	}
}

// PriceFromAmounts returns the price implied by swapping in for out.
func PriceFromAmounts(in, out Amount) Price {
	return NewPrice(in.Currency(), out.Currency(), in.Raw(), out.Raw())
}

func pow10(d uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
}

// Base returns the currency being priced.
func (p Price) Base() *Currency {
	return p.base
}

// QuoteCurrency returns the unit of the price.
func (p Price) QuoteCurrency() *Currency {
	return p.quote
}

// Raw returns the price in smallest units.
func (p Price) Raw() fraction.Fraction {
	return p.raw
}

// Adjusted returns the price in whole units (raw * scalar).
func (p Price) Adjusted() fraction.Fraction {
	return p.raw.Mul(p.scalar)
}

// Invert returns the price of quote in terms of base.
func (p Price) Invert() Price {
	return NewPrice(p.quote, p.base, p.raw.Numerator(), p.raw.Denominator())
}

// Multiply chains p (A/B) with other (B/C) into A/C.
func (p Price) Multiply(other Price) (Price, error) {
	if !p.quote.Equals(other.base) {
		return Price{}, fmt.Errorf("%w: price quote %s vs base %s", ErrCurrencyMismatch, p.quote, other.base)
	}
	f := p.raw.Mul(other.raw)
	return NewPrice(p.base, other.quote, f.Denominator(), f.Numerator()), nil
}

// Quote converts an amount of base into quote, rounding down.
func (p Price) Quote(amount Amount) (Amount, error) {
	if !amount.Currency().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s", ErrCurrencyMismatch, p.base, amount.Currency())
	}
	return NewAmount(p.quote, p.raw.MulInt(amount.Raw()).Quotient())
}

// ToSignificant formats the adjusted price; 0 digits means 6.
func (p Price) ToSignificant(digits int, rounding fraction.Rounding) (string, error) {
	if digits == 0 {
		digits = 6
	}
	return p.Adjusted().ToSignificant(digits, rounding)
}

// ToFixed formats the adjusted price; negative places means 4.
func (p Price) ToFixed(places int, rounding fraction.Rounding) (string, error) {
	if places < 0 {
		places = 4
	}
	return p.Adjusted().ToFixed(places, rounding)
}

// Pair returns the trading pair symbol (e.g., "WETH/USDC").
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// String returns a human-readable representation.
func (p Price) String() string {
	s, err := p.ToSignificant(6, fraction.RoundHalfUp)
	if err != nil {
		s = "n/a"
	}
	return fmt.Sprintf("%s %s", s, p.Pair())
}
