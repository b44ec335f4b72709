package bmath

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

// ParseDecimal converts a human decimal string such as "52.5" into a
// fixed-point word with 18 fractional digits.
func ParseDecimal(input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty decimal")
	}
	dec, err := sdkmath.LegacyNewDecFromStr(input)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", input, err)
	}
	if dec.IsNegative() {
		return nil, fmt.Errorf("negative decimal %q", input)
	}
	word, overflow := uint256.FromBig(dec.BigInt())
	if overflow {
		return nil, fmt.Errorf("decimal %q overflows 256 bits", input)
	}
	return word, nil
}

// MustParseDecimal is ParseDecimal for constants and tests.
func MustParseDecimal(input string) *uint256.Int {
	word, err := ParseDecimal(input)
	if err != nil {
		panic(err)
	}
	return word
}

// FormatDecimal renders a fixed-point word as a decimal string.
func FormatDecimal(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return sdkmath.LegacyNewDecFromBigIntWithPrec(value.ToBig(), Decimals).String()
}
