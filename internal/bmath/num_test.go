package bmath

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

func TestMulDivRounding(t *testing.T) {
	half := MustParseDecimal("0.5")
	got, err := Mul(half, MustParseDecimal("3"))
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if !got.Eq(MustParseDecimal("1.5")) {
		t.Fatalf("mul mismatch: %s", FormatDecimal(got))
	}

	// 1 wei * 0.5 rounds half up to 1 wei.
	got, err = Mul(uint256.NewInt(1), half)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("mul rounding mismatch: %s", got.ToBig())
	}

	got, err = Div(BONE, MustParseDecimal("3"))
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if !got.Eq(uint256.NewInt(333_333_333_333_333_333)) {
		t.Fatalf("div mismatch: %s", got.ToBig())
	}
}

func TestArithmeticFailures(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	if _, err := Add(max, uint256.NewInt(1)); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := Sub(uint256.NewInt(1), uint256.NewInt(2)); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected sub underflow, got %v", err)
	}
	if _, err := Mul(max, BONE); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected mul overflow, got %v", err)
	}
	if _, err := Div(BONE, uint256.NewInt(0)); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected div by zero, got %v", err)
	}
	if _, err := Div(max, BONE); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected div overflow, got %v", err)
	}
}

func TestPowi(t *testing.T) {
	got, err := Powi(MustParseDecimal("1.5"), 3)
	if err != nil {
		t.Fatalf("powi: %v", err)
	}
	if !got.Eq(MustParseDecimal("3.375")) {
		t.Fatalf("powi mismatch: %s", FormatDecimal(got))
	}

	got, err = Powi(MustParseDecimal("7"), 0)
	if err != nil {
		t.Fatalf("powi: %v", err)
	}
	if !got.Eq(BONE) {
		t.Fatalf("x^0 should be one, got %s", FormatDecimal(got))
	}
}

func TestPowFractional(t *testing.T) {
	cases := []struct {
		base string
		exp  string
		want string
	}{
		{base: "1.5", exp: "0.5", want: "1.224744871391589049"},
		{base: "0.8", exp: "2.5", want: "0.572433402239946162"},
		{base: "1.9", exp: "0.333333333333333333", want: "1.238562329630170822"},
		{base: "0.25", exp: "1", want: "0.25"},
	}

	for _, tc := range cases {
		got, err := Pow(MustParseDecimal(tc.base), MustParseDecimal(tc.exp))
		if err != nil {
			t.Fatalf("pow(%s, %s): %v", tc.base, tc.exp, err)
		}
		assertClose(t, got, MustParseDecimal(tc.want))
	}
}

func TestPowBaseBounds(t *testing.T) {
	if _, err := Pow(uint256.NewInt(0), BONE); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected base too low, got %v", err)
	}
	if _, err := Pow(MustParseDecimal("2"), MustParseDecimal("0.5")); !errors.Is(err, model.ErrArithmetic) {
		t.Fatalf("expected base too high, got %v", err)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	word := MustParseDecimal("10500.25")
	if got := FormatDecimal(word); got != "10500.250000000000000000" {
		t.Fatalf("format mismatch: %s", got)
	}
	if _, err := ParseDecimal("-1"); err == nil {
		t.Fatalf("expected error for negative decimal")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatalf("expected error for malformed decimal")
	}
}

// assertClose fails unless got is within 1e-8 relative error of want.
func assertClose(t testing.TB, got, want *uint256.Int) {
	t.Helper()
	if !withinTolerance(got, want) {
		t.Fatalf("value %s not within 1e-8 of %s", FormatDecimal(got), FormatDecimal(want))
	}
}

func withinTolerance(got, want *uint256.Int) bool {
	diff, _ := SubSign(got, want)
	scaled := new(uint256.Int).Mul(diff, uint256.NewInt(100_000_000))
	return scaled.Cmp(want) <= 0
}
