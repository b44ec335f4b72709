package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

// JoinPool mints poolAmountOut shares against a proportional deposit of
// every bound token. maxAmountsIn follows the current token order.
func (p *Pool) JoinPool(caller common.Address, poolAmountOut *uint256.Int, maxAmountsIn []*uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireFinalized(); err != nil {
		return err
	}
	if len(maxAmountsIn) != len(p.tokens) {
		return model.ErrBounds.Wrapf("got %d limits for %d tokens", len(maxAmountsIn), len(p.tokens))
	}

	ratio, err := bmath.Div(poolAmountOut, p.shares.TotalSupply())
	if err != nil {
		return err
	}
	if ratio.IsZero() {
		return model.ErrArithmetic.Wrap("join ratio rounds to zero")
	}

	amounts := make([]*uint256.Int, len(p.tokens))
	for i, token := range p.tokens {
		amountIn, err := bmath.Mul(ratio, p.records[token].balance)
		if err != nil {
			return err
		}
		if amountIn.IsZero() {
			return model.ErrArithmetic.Wrapf("join amount of %s rounds to zero", token.Hex())
		}
		if amountIn.Gt(maxAmountsIn[i]) {
			return model.ErrSlippage.Wrapf("amount in of %s above limit", token.Hex())
		}
		amounts[i] = amountIn
	}

	saved := p.snapshot(p.tokens...)
	transfers := make([]transfer, 0, len(p.tokens)+1)
	for i, token := range p.tokens {
		rec := p.records[token]
		rec.balance = new(uint256.Int).Add(rec.balance, amounts[i])
		transfers = append(transfers, p.pull(token, caller, amounts[i]))
	}
	transfers = append(transfers, p.mint(caller, poolAmountOut))
	if err := p.settle(saved, transfers...); err != nil {
		return err
	}

	for i, token := range p.tokens {
		p.emit(JoinEvent{Pool: p.address, Caller: caller, TokenIn: token, AmountIn: amounts[i]})
	}
	p.logger.Debug("join", zap.String("caller", caller.Hex()), amountField("pool_amount_out", poolAmountOut))
	return nil
}

// ExitPool burns poolAmountIn shares for a proportional withdrawal of every
// bound token. minAmountsOut follows the current token order.
func (p *Pool) ExitPool(caller common.Address, poolAmountIn *uint256.Int, minAmountsOut []*uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireFinalized(); err != nil {
		return err
	}
	if len(minAmountsOut) != len(p.tokens) {
		return model.ErrBounds.Wrapf("got %d limits for %d tokens", len(minAmountsOut), len(p.tokens))
	}

	exitFee, err := bmath.Mul(poolAmountIn, bmath.ExitFee)
	if err != nil {
		return err
	}
	pAiAfterExitFee, err := bmath.Sub(poolAmountIn, exitFee)
	if err != nil {
		return err
	}
	ratio, err := bmath.Div(pAiAfterExitFee, p.shares.TotalSupply())
	if err != nil {
		return err
	}
	if ratio.IsZero() {
		return model.ErrArithmetic.Wrap("exit ratio rounds to zero")
	}

	amounts := make([]*uint256.Int, len(p.tokens))
	for i, token := range p.tokens {
		amountOut, err := bmath.Mul(ratio, p.records[token].balance)
		if err != nil {
			return err
		}
		if amountOut.IsZero() {
			return model.ErrArithmetic.Wrapf("exit amount of %s rounds to zero", token.Hex())
		}
		if amountOut.Lt(minAmountsOut[i]) {
			return model.ErrSlippage.Wrapf("amount out of %s below limit", token.Hex())
		}
		amounts[i] = amountOut
	}

	saved := p.snapshot(p.tokens...)
	transfers := make([]transfer, 0, len(p.tokens)+1)
	transfers = append(transfers, p.burn(caller, poolAmountIn))
	for i, token := range p.tokens {
		rec := p.records[token]
		rec.balance = new(uint256.Int).Sub(rec.balance, amounts[i])
		transfers = append(transfers, p.push(token, caller, amounts[i]))
	}
	if err := p.settle(saved, transfers...); err != nil {
		return err
	}

	for i, token := range p.tokens {
		p.emit(ExitEvent{Pool: p.address, Caller: caller, TokenOut: token, AmountOut: amounts[i]})
	}
	p.logger.Debug("exit", zap.String("caller", caller.Hex()), amountField("pool_amount_in", poolAmountIn))
	return nil
}

// JoinswapExternAmountIn deposits exactly amountIn of one token and returns
// the shares minted.
func (p *Pool) JoinswapExternAmountIn(caller, tokenIn common.Address, amountIn, minPoolAmountOut *uint256.Int) (*uint256.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	rec, err := p.record(tokenIn)
	if err != nil {
		return nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, err
	}
	if err := p.checkMaxIn(rec, amountIn); err != nil {
		return nil, err
	}

	poolAmountOut, err := bmath.PoolOutGivenSingleIn(rec.balance, rec.denorm, p.shares.TotalSupply(), p.totalWeight, amountIn, p.swapFee)
	if err != nil {
		return nil, err
	}
	if poolAmountOut.Lt(minPoolAmountOut) {
		return nil, model.ErrSlippage.Wrapf("pool amount out %s below minimum", bmath.FormatDecimal(poolAmountOut))
	}

	if err := p.commitJoinswap(caller, tokenIn, rec, amountIn, poolAmountOut); err != nil {
		return nil, err
	}
	return poolAmountOut, nil
}

// JoinswapPoolAmountOut mints exactly poolAmountOut shares against a deposit
// of one token and returns the amount deposited.
func (p *Pool) JoinswapPoolAmountOut(caller, tokenIn common.Address, poolAmountOut, maxAmountIn *uint256.Int) (*uint256.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	rec, err := p.record(tokenIn)
	if err != nil {
		return nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, err
	}

	amountIn, err := bmath.SingleInGivenPoolOut(rec.balance, rec.denorm, p.shares.TotalSupply(), p.totalWeight, poolAmountOut, p.swapFee)
	if err != nil {
		return nil, err
	}
	if amountIn.IsZero() {
		return nil, model.ErrArithmetic.Wrap("amount in rounds to zero")
	}
	if amountIn.Gt(maxAmountIn) {
		return nil, model.ErrSlippage.Wrapf("amount in %s above maximum", bmath.FormatDecimal(amountIn))
	}
	if err := p.checkMaxIn(rec, amountIn); err != nil {
		return nil, err
	}

	if err := p.commitJoinswap(caller, tokenIn, rec, amountIn, poolAmountOut); err != nil {
		return nil, err
	}
	return amountIn, nil
}

// ExitswapPoolAmountIn burns exactly poolAmountIn shares for one token and
// returns the amount withdrawn.
func (p *Pool) ExitswapPoolAmountIn(caller, tokenOut common.Address, poolAmountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	rec, err := p.record(tokenOut)
	if err != nil {
		return nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, err
	}

	amountOut, err := bmath.SingleOutGivenPoolIn(rec.balance, rec.denorm, p.shares.TotalSupply(), p.totalWeight, poolAmountIn, p.swapFee)
	if err != nil {
		return nil, err
	}
	if amountOut.Lt(minAmountOut) {
		return nil, model.ErrSlippage.Wrapf("amount out %s below minimum", bmath.FormatDecimal(amountOut))
	}
	if err := p.checkMaxOut(rec, amountOut); err != nil {
		return nil, err
	}

	if err := p.commitExitswap(caller, tokenOut, rec, poolAmountIn, amountOut); err != nil {
		return nil, err
	}
	return amountOut, nil
}

// ExitswapExternAmountOut withdraws exactly amountOut of one token and
// returns the shares burned.
func (p *Pool) ExitswapExternAmountOut(caller, tokenOut common.Address, amountOut, maxPoolAmountIn *uint256.Int) (*uint256.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	rec, err := p.record(tokenOut)
	if err != nil {
		return nil, err
	}
	if err := p.requireFinalized(); err != nil {
		return nil, err
	}
	if err := p.checkMaxOut(rec, amountOut); err != nil {
		return nil, err
	}

	poolAmountIn, err := bmath.PoolInGivenSingleOut(rec.balance, rec.denorm, p.shares.TotalSupply(), p.totalWeight, amountOut, p.swapFee)
	if err != nil {
		return nil, err
	}
	if poolAmountIn.IsZero() {
		return nil, model.ErrArithmetic.Wrap("pool amount in rounds to zero")
	}
	if poolAmountIn.Gt(maxPoolAmountIn) {
		return nil, model.ErrSlippage.Wrapf("pool amount in %s above maximum", bmath.FormatDecimal(poolAmountIn))
	}

	if err := p.commitExitswap(caller, tokenOut, rec, poolAmountIn, amountOut); err != nil {
		return nil, err
	}
	return poolAmountIn, nil
}

func (p *Pool) checkMaxIn(rec *record, amountIn *uint256.Int) error {
	limit, err := bmath.Mul(rec.balance, bmath.MaxInRatio)
	if err != nil {
		return err
	}
	if amountIn.Gt(limit) {
		return model.ErrBounds.Wrapf("amount in %s above max in ratio", bmath.FormatDecimal(amountIn))
	}
	return nil
}

func (p *Pool) checkMaxOut(rec *record, amountOut *uint256.Int) error {
	limit, err := bmath.Mul(rec.balance, bmath.MaxOutRatio)
	if err != nil {
		return err
	}
	if amountOut.Gt(limit) {
		return model.ErrBounds.Wrapf("amount out %s above max out ratio", bmath.FormatDecimal(amountOut))
	}
	return nil
}

func (p *Pool) commitJoinswap(caller, tokenIn common.Address, rec *record, amountIn, poolAmountOut *uint256.Int) error {
	saved := p.snapshot(tokenIn)
	rec.balance = new(uint256.Int).Add(rec.balance, amountIn)
	if err := p.settle(saved,
		p.pull(tokenIn, caller, amountIn),
		p.mint(caller, poolAmountOut),
	); err != nil {
		return err
	}

	p.emit(JoinEvent{Pool: p.address, Caller: caller, TokenIn: tokenIn, AmountIn: amountIn})
	p.logger.Debug("joinswap",
		zap.String("caller", caller.Hex()),
		zap.String("token_in", tokenIn.Hex()),
		amountField("amount_in", amountIn),
		amountField("pool_amount_out", poolAmountOut),
	)
	return nil
}

func (p *Pool) commitExitswap(caller, tokenOut common.Address, rec *record, poolAmountIn, amountOut *uint256.Int) error {
	saved := p.snapshot(tokenOut)
	rec.balance = new(uint256.Int).Sub(rec.balance, amountOut)
	if err := p.settle(saved,
		p.burn(caller, poolAmountIn),
		p.push(tokenOut, caller, amountOut),
	); err != nil {
		return err
	}

	p.emit(ExitEvent{Pool: p.address, Caller: caller, TokenOut: tokenOut, AmountOut: amountOut})
	p.logger.Debug("exitswap",
		zap.String("caller", caller.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		amountField("pool_amount_in", poolAmountIn),
		amountField("amount_out", amountOut),
	)
	return nil
}
