package asset

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/fd1az/v2-router/internal/fraction"
)

// Common errors
var (
	ErrNilRaw           = fmt.Errorf("%w: nil raw value", ErrContractViolation)
	ErrAmountOutOfRange = fmt.Errorf("%w: amount outside uint256 range", ErrContractViolation)
	ErrCurrencyMismatch = fmt.Errorf("%w: cannot operate on different currencies", ErrContractViolation)
	ErrNegativeResult   = fmt.Errorf("%w: operation would result in negative amount", ErrContractViolation)
	ErrTooManyDecimals  = fmt.Errorf("%w: too many decimal places for currency", ErrContractViolation)
)

// Amount is an immutable quantity of a currency.
// The raw value is always in the smallest unit (wei for 18 decimals).
type Amount struct {
	raw      *big.Int
	currency *Currency
}

// NewAmount creates an Amount from a raw value in the smallest unit.
// The raw value must fit in an unsigned 256-bit integer.
func NewAmount(c *Currency, raw *big.Int) (Amount, error) {
	if c == nil {
		return Amount{}, ErrNilCurrency
	}
	if raw == nil {
		return Amount{}, ErrNilRaw
	}
	if raw.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s is negative", ErrAmountOutOfRange, raw)
	}
	if _, overflow := uint256.FromBig(raw); overflow {
		return Amount{}, fmt.Errorf("%w: %s", ErrAmountOutOfRange, raw)
	}
	return Amount{raw: new(big.Int).Set(raw), currency: c}, nil
}

// MustAmount is NewAmount that panics on error. Intended for constants and tests.
func MustAmount(c *Currency, raw *big.Int) Amount {
	a, err := NewAmount(c, raw)
	if err != nil {
		panic(err)
	}
	return a
}

// NewAmountFromInt64 creates an Amount from an int64 raw value.
func NewAmountFromInt64(c *Currency, raw int64) (Amount, error) {
	return NewAmount(c, big.NewInt(raw))
}

// EtherAmount creates an amount of the native coin.
func EtherAmount(raw *big.Int) (Amount, error) {
	return NewAmount(Ether, raw)
}

// Zero creates a zero Amount for the given currency.
func Zero(c *Currency) Amount {
	return Amount{raw: new(big.Int), currency: c}
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

// Currency returns the currency this amount is denominated in.
func (a Amount) Currency() *Currency {
	return a.currency
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Fraction returns raw / 10^decimals.
func (a Amount) Fraction() fraction.Fraction {
	return fraction.New(a.Raw(), a.scale())
}

// RawFraction returns raw / 1.
func (a Amount) RawFraction() fraction.Fraction {
	return fraction.FromInt(a.Raw())
}

func (a Amount) scale() *big.Int {
	if a.currency == nil {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.currency.Decimals())), nil)
}

// Add adds two amounts of the same currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameCurrency(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.currency, new(big.Int).Add(a.Raw(), b.Raw()))
}

// Sub subtracts b from a (same currency only).
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameCurrency(b); err != nil {
		return Amount{}, err
	}
	if a.Raw().Cmp(b.Raw()) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.currency, new(big.Int).Sub(a.Raw(), b.Raw()))
}

// Cmp compares two amounts of the same currency.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameCurrency(b); err != nil {
		return 0, err
	}
	return a.Fraction().Cmp(b.Fraction()), nil
}

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c < 0, err
}

// EqualTo returns true if a == b.
func (a Amount) EqualTo(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c == 0, err
}

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c > 0, err
}

// Equals returns true if both amounts have the same currency and value.
func (a Amount) Equals(b Amount) bool {
	if !a.currency.Equals(b.currency) {
		return false
	}
	return a.Raw().Cmp(b.Raw()) == 0
}

// ToSignificant formats with the given significant digits; 0 means 6.
func (a Amount) ToSignificant(digits int, rounding fraction.Rounding) (string, error) {
	if digits == 0 {
		digits = 6
	}
	return a.Fraction().ToSignificant(digits, rounding)
}

// ToFixed formats with the given decimal places. Negative places means the
// currency decimals; more places than the currency has is an error.
func (a Amount) ToFixed(places int, rounding fraction.Rounding) (string, error) {
	if a.currency == nil {
		return "", ErrNilCurrency
	}
	if places < 0 {
		places = int(a.currency.Decimals())
	}
	if places > int(a.currency.Decimals()) {
		return "", fmt.Errorf("%w: %d places for %d decimals", fraction.ErrInvalidDigits, places, a.currency.Decimals())
	}
	return a.Fraction().ToFixed(places, rounding)
}

// ToExact returns the exact decimal representation without rounding.
func (a Amount) ToExact() string {
	return a.ToDecimal().String()
}

// ToDecimal converts the amount to decimal.Decimal for display.
// This is a BOUNDARY function - use only for UI/display, not calculations.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.currency == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.currency.Decimals()))
}

// ParseDecimal creates an Amount from a decimal value in whole units.
// This is a BOUNDARY function - use for parsing user input.
func ParseDecimal(c *Currency, d decimal.Decimal) (Amount, error) {
	if c == nil {
		return Amount{}, ErrNilCurrency
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s is negative", ErrAmountOutOfRange, d)
	}

	scaled := d.Shift(int32(c.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, fmt.Errorf("%w: %s has more than %d", ErrTooManyDecimals, d, c.Decimals())
	}

	return NewAmount(c, scaled.BigInt())
}

// ParseString creates an Amount from a decimal string in whole units.
func ParseString(c *Currency, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid decimal string %q: %w", s, err)
	}
	return ParseDecimal(c, d)
}

// String returns a human-readable representation (e.g., "1.5 ETH").
func (a Amount) String() string {
	if a.currency == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToExact(), a.currency.Symbol())
}

func (a Amount) checkSameCurrency(b Amount) error {
	if a.currency == nil || b.currency == nil {
		return ErrNilCurrency
	}
	if !a.currency.Equals(b.currency) {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.currency, b.currency)
	}
	return nil
}
