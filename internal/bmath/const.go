// Package bmath implements the 18-decimal fixed-point arithmetic and the
// weighted constant-mean curve formulas used by pools.
package bmath

import "github.com/holiman/uint256"

// Decimals is the number of fractional digits of every scaled amount.
const Decimals = 18

var (
	// BONE is 1.0 in fixed point.
	BONE = uint256.NewInt(1_000_000_000_000_000_000)

	MinBoundTokens = 2
	MaxBoundTokens = 8

	MinFee = frac(1_000_000)
	MaxFee = frac(10)

	// ExitFee is charged on pool shares burned by exits. It is zero.
	ExitFee = uint256.NewInt(0)

	MinWeight      = whole(1)
	MaxWeight      = whole(50)
	MaxTotalWeight = whole(50)
	MinBalance     = frac(1_000_000_000_000)

	InitPoolSupply = whole(100)

	MaxInRatio  = frac(2)
	MaxOutRatio = new(uint256.Int).AddUint64(frac(3), 1)

	MaxReservesRatio     = frac(5)
	DefaultReservesRatio = uint256.NewInt(0)

	MinBPowBase   = uint256.NewInt(1)
	MaxBPowBase   = new(uint256.Int).SubUint64(whole(2), 1)
	BPowPrecision = frac(10_000_000_000)
)

func whole(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), BONE)
}

func frac(d uint64) *uint256.Int {
	return new(uint256.Int).Div(BONE, uint256.NewInt(d))
}
