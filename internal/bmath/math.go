package bmath

import (
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

// SpotPrice returns the price of tokenOut in units of tokenIn, including the
// swap fee:
//
//	(balanceIn / weightIn) / (balanceOut / weightOut) * 1 / (1 - swapFee)
func SpotPrice(balanceIn, weightIn, balanceOut, weightOut, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	ratio := spotRatio(&c, balanceIn, weightIn, balanceOut, weightOut)
	scale := c.div(BONE, c.sub(BONE, swapFee))
	return c.result(c.mul(ratio, scale))
}

// SpotPriceSansFee is SpotPrice without the fee term.
func SpotPriceSansFee(balanceIn, weightIn, balanceOut, weightOut *uint256.Int) (*uint256.Int, error) {
	var c calc
	return c.result(spotRatio(&c, balanceIn, weightIn, balanceOut, weightOut))
}

func spotRatio(c *calc, balanceIn, weightIn, balanceOut, weightOut *uint256.Int) *uint256.Int {
	numer := c.div(balanceIn, weightIn)
	denom := c.div(balanceOut, weightOut)
	return c.div(numer, denom)
}

// OutGivenIn returns the amount of tokenOut paid for amountIn of tokenIn:
//
//	adjIn = amountIn * (1 - swapFee)
//	out   = balanceOut * (1 - (balanceIn / (balanceIn + adjIn)) ^ (weightIn / weightOut))
func OutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	weightRatio := c.div(weightIn, weightOut)
	adjustedIn := c.mul(amountIn, c.sub(BONE, swapFee))
	y := c.div(balanceIn, c.add(balanceIn, adjustedIn))
	foo := c.pow(y, weightRatio)
	bar := c.sub(BONE, foo)
	return c.result(c.mul(balanceOut, bar))
}

// InGivenOut returns the amount of tokenIn required to receive amountOut of
// tokenOut. It is the inverse of OutGivenIn:
//
//	in = balanceIn * ((balanceOut / (balanceOut - amountOut)) ^ (weightOut / weightIn) - 1) / (1 - swapFee)
func InGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut, swapFee *uint256.Int) (*uint256.Int, error) {
	if amountOut.Cmp(balanceOut) >= 0 {
		return nil, model.ErrArithmetic.Wrapf("amount out %s exceeds balance %s", amountOut.ToBig(), balanceOut.ToBig())
	}

	var c calc
	weightRatio := c.div(weightOut, weightIn)
	diff := c.sub(balanceOut, amountOut)
	y := c.div(balanceOut, diff)
	foo := c.sub(c.pow(y, weightRatio), BONE)
	amountIn := c.div(c.mul(balanceIn, foo), c.sub(BONE, swapFee))
	return c.result(amountIn)
}

// PoolOutGivenSingleIn returns the pool shares minted for a single-token
// deposit of amountIn. Only the share of the deposit that is implicitly
// swapped into the other tokens, (1 - normalizedWeight), pays the fee.
func PoolOutGivenSingleIn(balanceIn, weightIn, poolSupply, totalWeight, amountIn, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	normalizedWeight := c.div(weightIn, totalWeight)
	zaz := c.mul(c.sub(BONE, normalizedWeight), swapFee)
	amountInAfterFee := c.mul(amountIn, c.sub(BONE, zaz))

	newBalanceIn := c.add(balanceIn, amountInAfterFee)
	tokenInRatio := c.div(newBalanceIn, balanceIn)

	poolRatio := c.pow(tokenInRatio, normalizedWeight)
	newPoolSupply := c.mul(poolRatio, poolSupply)
	return c.result(c.sub(newPoolSupply, poolSupply))
}

// SingleInGivenPoolOut returns the single-token deposit needed to mint
// poolAmountOut shares.
func SingleInGivenPoolOut(balanceIn, weightIn, poolSupply, totalWeight, poolAmountOut, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	normalizedWeight := c.div(weightIn, totalWeight)
	newPoolSupply := c.add(poolSupply, poolAmountOut)
	poolRatio := c.div(newPoolSupply, poolSupply)

	boo := c.div(BONE, normalizedWeight)
	tokenInRatio := c.pow(poolRatio, boo)
	newBalanceIn := c.mul(tokenInRatio, balanceIn)
	amountInAfterFee := c.sub(newBalanceIn, balanceIn)

	zar := c.mul(c.sub(BONE, normalizedWeight), swapFee)
	return c.result(c.div(amountInAfterFee, c.sub(BONE, zar)))
}

// SingleOutGivenPoolIn returns the single-token withdrawal paid for burning
// poolAmountIn shares.
func SingleOutGivenPoolIn(balanceOut, weightOut, poolSupply, totalWeight, poolAmountIn, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	normalizedWeight := c.div(weightOut, totalWeight)
	poolAmountInAfterExitFee := c.mul(poolAmountIn, c.sub(BONE, ExitFee))
	newPoolSupply := c.sub(poolSupply, poolAmountInAfterExitFee)
	poolRatio := c.div(newPoolSupply, poolSupply)

	tokenOutRatio := c.pow(poolRatio, c.div(BONE, normalizedWeight))
	newBalanceOut := c.mul(tokenOutRatio, balanceOut)
	amountOutBeforeFee := c.sub(balanceOut, newBalanceOut)

	zaz := c.mul(c.sub(BONE, normalizedWeight), swapFee)
	return c.result(c.mul(amountOutBeforeFee, c.sub(BONE, zaz)))
}

// PoolInGivenSingleOut returns the pool shares that must be burned to
// withdraw amountOut of a single token.
func PoolInGivenSingleOut(balanceOut, weightOut, poolSupply, totalWeight, amountOut, swapFee *uint256.Int) (*uint256.Int, error) {
	var c calc
	normalizedWeight := c.div(weightOut, totalWeight)
	zar := c.mul(c.sub(BONE, normalizedWeight), swapFee)
	amountOutBeforeFee := c.div(amountOut, c.sub(BONE, zar))

	newBalanceOut := c.sub(balanceOut, amountOutBeforeFee)
	tokenOutRatio := c.div(newBalanceOut, balanceOut)

	poolRatio := c.pow(tokenOutRatio, normalizedWeight)
	newPoolSupply := c.mul(poolRatio, poolSupply)
	poolAmountInAfterExitFee := c.sub(poolSupply, newPoolSupply)
	return c.result(c.div(poolAmountInAfterExitFee, c.sub(BONE, ExitFee)))
}

// ReservesSplit divides a gross inbound amount between the reserve ledger
// and the pool balance. The reserve cut is reservesRatio of zeroFeeAmount,
// the fee-free size of the same trade; the pool keeps the rest.
func ReservesSplit(grossAmount, zeroFeeAmount, reservesRatio *uint256.Int) (toReserve, toPool *uint256.Int, err error) {
	if reservesRatio.Gt(BONE) {
		return nil, nil, model.ErrArithmetic.Wrapf("reserves ratio %s above one", reservesRatio.ToBig())
	}
	if zeroFeeAmount.Gt(grossAmount) {
		return nil, nil, model.ErrArithmetic.Wrapf("zero-fee amount %s above gross %s", zeroFeeAmount.ToBig(), grossAmount.ToBig())
	}

	var c calc
	toReserve = c.mul(zeroFeeAmount, reservesRatio)
	toPool = c.sub(grossAmount, toReserve)
	if c.err != nil {
		return nil, nil, c.err
	}
	return toReserve, toPool, nil
}
