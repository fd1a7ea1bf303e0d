package fraction_test

import (
	"errors"
	"math/big"
	"testing"

	"pgregory.net/rapid"

	"github.com/fd1az/v2-router/internal/fraction"
)

func TestFraction_Quotient(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		want     int64
	}{
		{"exact", 8, 4, 2},
		{"truncates_positive", 12, 4, 3},
		{"floor_positive", 8, 3, 2},
		{"floor_negative_numerator", -7, 2, -4},
		{"floor_negative_denominator", 7, -2, -4},
		{"both_negative", -7, -2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fraction.NewInt64(tt.num, tt.den).Quotient()
			if got.Int64() != tt.want {
				t.Errorf("Quotient() = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestFraction_Remainder(t *testing.T) {
	tests := []struct {
		num, den int64
		want     fraction.Fraction
	}{
		{8, 4, fraction.NewInt64(0, 4)},
		{12, 4, fraction.NewInt64(0, 4)},
		{16, 5, fraction.NewInt64(1, 5)},
		{-7, 2, fraction.NewInt64(1, 2)},
	}

	for _, tt := range tests {
		got := fraction.NewInt64(tt.num, tt.den).Remainder()
		if !got.EqualTo(tt.want) {
			t.Errorf("Remainder(%d/%d) = %s, want %s", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestFraction_Arithmetic(t *testing.T) {
	a := fraction.NewInt64(1, 10)
	b := fraction.NewInt64(4, 12)

	if got := a.Add(b); !got.EqualTo(fraction.NewInt64(52, 120)) {
		t.Errorf("Add = %s", got)
	}
	if got := a.Sub(b); !got.EqualTo(fraction.NewInt64(-28, 120)) {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Mul(b); !got.EqualTo(fraction.NewInt64(4, 120)) {
		t.Errorf("Mul = %s", got)
	}
	if got := a.Div(b); !got.EqualTo(fraction.NewInt64(12, 40)) {
		t.Errorf("Div = %s", got)
	}

	// same denominator keeps the denominator as-is
	sum := fraction.NewInt64(1, 5).Add(fraction.NewInt64(2, 5))
	if sum.Denominator().Int64() != 5 || sum.Numerator().Int64() != 3 {
		t.Errorf("same denominator Add = %s, want 3/5", sum)
	}
}

func TestFraction_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b fraction.Fraction
		want int
	}{
		{"less", fraction.NewInt64(1, 10), fraction.NewInt64(4, 12), -1},
		{"equal_unreduced", fraction.NewInt64(1, 3), fraction.NewInt64(4, 12), 0},
		{"greater", fraction.NewInt64(5, 12), fraction.NewInt64(4, 12), 1},
		{"negative_denominator", fraction.NewInt64(1, -2), fraction.NewInt64(1, 3), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cmp(tt.b); got != tt.want {
				t.Errorf("Cmp = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFraction_ToSignificant(t *testing.T) {
	tests := []struct {
		name     string
		f        fraction.Fraction
		digits   int
		rounding fraction.Rounding
		want     string
	}{
		{"thirds", fraction.NewInt64(1, 3), 3, fraction.RoundHalfUp, "0.333"},
		{"two_thirds_half_up", fraction.NewInt64(2, 3), 3, fraction.RoundHalfUp, "0.667"},
		{"two_thirds_down", fraction.NewInt64(2, 3), 3, fraction.RoundDown, "0.666"},
		{"integer_padding", fraction.NewInt64(12345, 1), 2, fraction.RoundHalfUp, "12000"},
		{"trailing_zeros_dropped", fraction.NewInt64(1, 2), 5, fraction.RoundHalfUp, "0.5"},
		{"round_up", fraction.NewInt64(1001, 1000), 2, fraction.RoundUp, "1.1"},
		{"carry", fraction.NewInt64(999, 100), 2, fraction.RoundHalfUp, "10"},
		{"small", fraction.NewInt64(125, 100000), 2, fraction.RoundHalfUp, "0.0013"},
		{"zero", fraction.NewInt64(0, 7), 4, fraction.RoundHalfUp, "0"},
		{"negative", fraction.NewInt64(-2, 3), 2, fraction.RoundHalfUp, "-0.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f.ToSignificant(tt.digits, tt.rounding)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToSignificant = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFraction_ToFixed(t *testing.T) {
	tests := []struct {
		name     string
		f        fraction.Fraction
		places   int
		rounding fraction.Rounding
		want     string
	}{
		{"thirds", fraction.NewInt64(1, 3), 4, fraction.RoundHalfUp, "0.3333"},
		{"half_up", fraction.NewInt64(5, 8), 2, fraction.RoundHalfUp, "0.63"},
		{"down", fraction.NewInt64(5, 8), 2, fraction.RoundDown, "0.62"},
		{"up", fraction.NewInt64(1, 1000), 2, fraction.RoundUp, "0.01"},
		{"pads_zeros", fraction.NewInt64(3, 2), 3, fraction.RoundHalfUp, "1.500"},
		{"no_places", fraction.NewInt64(7, 2), 0, fraction.RoundHalfUp, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f.ToFixed(tt.places, tt.rounding)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToFixed = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFraction_InvalidDigits(t *testing.T) {
	f := fraction.NewInt64(1, 3)

	if _, err := f.ToSignificant(0, fraction.RoundHalfUp); !errors.Is(err, fraction.ErrInvalidDigits) {
		t.Errorf("ToSignificant(0) err = %v, want ErrInvalidDigits", err)
	}
	if _, err := f.ToFixed(-1, fraction.RoundHalfUp); !errors.Is(err, fraction.ErrInvalidDigits) {
		t.Errorf("ToFixed(-1) err = %v, want ErrInvalidDigits", err)
	}
}

func TestPercent_Format(t *testing.T) {
	p := fraction.NewPercent(50, 10000)

	got, err := p.ToFixed(2, fraction.RoundHalfUp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0.50" {
		t.Errorf("ToFixed = %q, want 0.50", got)
	}
	if p.String() != "0.50%" {
		t.Errorf("String = %q, want 0.50%%", p.String())
	}

	sig, err := fraction.NewPercent(1, 3).ToSignificant(0, fraction.RoundHalfUp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != "33.333" {
		t.Errorf("ToSignificant default = %q, want 33.333", sig)
	}
}

func TestFraction_InvertRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		num := rapid.Int64Range(-1_000_000_000, 1_000_000_000).Draw(t, "num")
		den := rapid.Int64Range(1, 1_000_000_000).Draw(t, "den")
		if num == 0 {
			num = 1
		}

		f := fraction.NewInt64(num, den)
		back := f.Invert().Invert()

		if !back.EqualTo(f) {
			t.Fatalf("Invert().Invert() = %s, want %s", back, f)
		}
		if back.Numerator().Cmp(big.NewInt(num)) != 0 || back.Denominator().Cmp(big.NewInt(den)) != 0 {
			t.Fatalf("components changed: %s", back)
		}
	})
}

func TestFraction_RemainderIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		num := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "num")
		den := rapid.Int64Range(1, 1_000).Draw(t, "den")

		f := fraction.NewInt64(num, den)
		q := fraction.FromInt(f.Quotient())
		back := q.Add(f.Remainder())

		if !back.EqualTo(f) {
			t.Fatalf("quotient + remainder = %s, want %s", back, f)
		}
		if f.Remainder().Sign() < 0 {
			t.Fatalf("floor remainder must be non-negative for positive denominator, got %s", f.Remainder())
		}
	})
}
