package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

// swapPlan is a fully validated swap ready to commit.
type swapPlan struct {
	amountIn  *uint256.Int
	amountOut *uint256.Int
	toReserve *uint256.Int
	toPool    *uint256.Int
	spotAfter *uint256.Int
}

// SwapExactAmountIn sells amountIn of tokenIn for as much tokenOut as the
// curve gives, failing if that is below minAmountOut or the price moves past
// maxPrice.
func (p *Pool) SwapExactAmountIn(caller, tokenIn common.Address, amountIn *uint256.Int, tokenOut common.Address, minAmountOut, maxPrice *uint256.Int) (amountOut, spotPriceAfter *uint256.Int, err error) {
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	in, out, err := p.pair(tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, nil, err
	}

	maxIn, err := bmath.Mul(in.balance, bmath.MaxInRatio)
	if err != nil {
		return nil, nil, err
	}
	if amountIn.Gt(maxIn) {
		return nil, nil, model.ErrBounds.Wrapf("amount in %s above max in ratio", bmath.FormatDecimal(amountIn))
	}

	spotBefore, err := bmath.SpotPrice(in.balance, in.denorm, out.balance, out.denorm, p.swapFee)
	if err != nil {
		return nil, nil, err
	}
	if spotBefore.Gt(maxPrice) {
		return nil, nil, model.ErrSlippage.Wrapf("spot price %s above limit", bmath.FormatDecimal(spotBefore))
	}

	amountOut, err = bmath.OutGivenIn(in.balance, in.denorm, out.balance, out.denorm, amountIn, p.swapFee)
	if err != nil {
		return nil, nil, err
	}
	if amountOut.Lt(minAmountOut) {
		return nil, nil, model.ErrSlippage.Wrapf("amount out %s below minimum", bmath.FormatDecimal(amountOut))
	}

	plan, err := p.planSwap(in, out, spotBefore, amountIn, amountOut, maxPrice)
	if err != nil {
		return nil, nil, err
	}
	if err := p.commitSwap(caller, tokenIn, tokenOut, in, out, plan); err != nil {
		return nil, nil, err
	}
	return plan.amountOut, plan.spotAfter, nil
}

// SwapExactAmountOut buys exactly amountOut of tokenOut, paying at most
// maxAmountIn of tokenIn.
func (p *Pool) SwapExactAmountOut(caller, tokenIn common.Address, maxAmountIn *uint256.Int, tokenOut common.Address, amountOut, maxPrice *uint256.Int) (amountIn, spotPriceAfter *uint256.Int, err error) {
	if err := p.lock(); err != nil {
		return nil, nil, err
	}
	defer p.unlock()

	in, out, err := p.pair(tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, nil, err
	}

	maxOut, err := bmath.Mul(out.balance, bmath.MaxOutRatio)
	if err != nil {
		return nil, nil, err
	}
	if amountOut.Gt(maxOut) {
		return nil, nil, model.ErrBounds.Wrapf("amount out %s above max out ratio", bmath.FormatDecimal(amountOut))
	}

	spotBefore, err := bmath.SpotPrice(in.balance, in.denorm, out.balance, out.denorm, p.swapFee)
	if err != nil {
		return nil, nil, err
	}
	if spotBefore.Gt(maxPrice) {
		return nil, nil, model.ErrSlippage.Wrapf("spot price %s above limit", bmath.FormatDecimal(spotBefore))
	}

	amountIn, err = bmath.InGivenOut(in.balance, in.denorm, out.balance, out.denorm, amountOut, p.swapFee)
	if err != nil {
		return nil, nil, err
	}
	if amountIn.Gt(maxAmountIn) {
		return nil, nil, model.ErrSlippage.Wrapf("amount in %s above maximum", bmath.FormatDecimal(amountIn))
	}

	plan, err := p.planSwap(in, out, spotBefore, amountIn, amountOut, maxPrice)
	if err != nil {
		return nil, nil, err
	}
	if err := p.commitSwap(caller, tokenIn, tokenOut, in, out, plan); err != nil {
		return nil, nil, err
	}
	return plan.amountIn, plan.spotAfter, nil
}

// planSwap splits the input between reserve and pool and checks the price
// after the trade.
func (p *Pool) planSwap(in, out *record, spotBefore, amountIn, amountOut, maxPrice *uint256.Int) (*swapPlan, error) {
	zeroFee, err := bmath.InGivenOut(in.balance, in.denorm, out.balance, out.denorm, amountOut, new(uint256.Int))
	if err != nil {
		return nil, err
	}
	toReserve, toPool, err := bmath.ReservesSplit(amountIn, zeroFee, p.reservesRatio)
	if err != nil {
		return nil, err
	}

	balanceIn, err := bmath.Add(in.balance, toPool)
	if err != nil {
		return nil, err
	}
	balanceOut, err := bmath.Sub(out.balance, amountOut)
	if err != nil {
		return nil, err
	}
	spotAfter, err := bmath.SpotPrice(balanceIn, in.denorm, balanceOut, out.denorm, p.swapFee)
	if err != nil {
		return nil, err
	}
	if spotAfter.Lt(spotBefore) {
		return nil, model.ErrArithmetic.Wrap("spot price fell after swap")
	}
	if spotAfter.Gt(maxPrice) {
		return nil, model.ErrSlippage.Wrapf("spot price after %s above limit", bmath.FormatDecimal(spotAfter))
	}
	effective, err := bmath.Div(amountIn, amountOut)
	if err != nil {
		return nil, err
	}
	if spotBefore.Gt(effective) {
		return nil, model.ErrArithmetic.Wrap("effective price below spot price")
	}

	return &swapPlan{
		amountIn:  amountIn,
		amountOut: amountOut,
		toReserve: toReserve,
		toPool:    toPool,
		spotAfter: spotAfter,
	}, nil
}

func (p *Pool) commitSwap(caller, tokenIn, tokenOut common.Address, in, out *record, plan *swapPlan) error {
	saved := p.snapshot(tokenIn, tokenOut)
	in.balance = new(uint256.Int).Add(in.balance, plan.toPool)
	in.reserve = new(uint256.Int).Add(in.reserve, plan.toReserve)
	out.balance = new(uint256.Int).Sub(out.balance, plan.amountOut)

	if err := p.settle(saved,
		p.pull(tokenIn, caller, plan.amountIn),
		p.push(tokenOut, caller, plan.amountOut),
	); err != nil {
		return err
	}

	p.emit(SwapEvent{
		Pool:      p.address,
		Caller:    caller,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  plan.amountIn,
		AmountOut: plan.amountOut,
	})
	if !plan.toReserve.IsZero() {
		p.emit(ReservesEvent{Pool: p.address, Token: tokenIn, Amount: plan.toReserve})
	}
	p.logger.Debug("swap",
		zap.String("caller", caller.Hex()),
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		amountField("amount_in", plan.amountIn),
		amountField("amount_out", plan.amountOut),
		amountField("reserve", plan.toReserve),
	)
	return nil
}
