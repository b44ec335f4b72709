package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

func checkWeightAndBalance(denorm, balance *uint256.Int) error {
	if denorm.Lt(bmath.MinWeight) {
		return model.ErrBounds.Wrapf("weight %s below minimum", bmath.FormatDecimal(denorm))
	}
	if denorm.Gt(bmath.MaxWeight) {
		return model.ErrBounds.Wrapf("weight %s above maximum", bmath.FormatDecimal(denorm))
	}
	if balance.Lt(bmath.MinBalance) {
		return model.ErrBounds.Wrapf("balance %s below minimum", bmath.FormatDecimal(balance))
	}
	return nil
}

// Bind adds token with an initial balance pulled from the controller.
func (p *Pool) Bind(caller, token common.Address, balance, denorm *uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	if _, ok := p.records[token]; ok {
		return model.ErrState.Wrapf("token %s already bound", token.Hex())
	}
	if len(p.tokens) >= bmath.MaxBoundTokens {
		return model.ErrBounds.Wrapf("pool already holds %d tokens", len(p.tokens))
	}
	if err := checkWeightAndBalance(denorm, balance); err != nil {
		return err
	}
	totalWeight, err := bmath.Add(p.totalWeight, denorm)
	if err != nil {
		return err
	}
	if totalWeight.Gt(bmath.MaxTotalWeight) {
		return model.ErrBounds.Wrapf("total weight %s above maximum", bmath.FormatDecimal(totalWeight))
	}

	if err := p.settle(nil, p.pull(token, caller, balance)); err != nil {
		return err
	}

	p.records[token] = &record{
		index:   len(p.tokens),
		denorm:  new(uint256.Int).Set(denorm),
		balance: new(uint256.Int).Set(balance),
		reserve: new(uint256.Int),
	}
	p.tokens = append(p.tokens, token)
	p.totalWeight = totalWeight
	p.logger.Info("token bound",
		zap.String("token", token.Hex()),
		amountField("balance", balance),
		amountField("denorm", denorm),
	)
	return nil
}

// Rebind changes the weight and balance of a bound token. The controller
// funds an increase and receives a decrease.
func (p *Pool) Rebind(caller, token common.Address, balance, denorm *uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	rec, err := p.record(token)
	if err != nil {
		return err
	}
	if err := checkWeightAndBalance(denorm, balance); err != nil {
		return err
	}

	remaining, err := bmath.Sub(p.totalWeight, rec.denorm)
	if err != nil {
		return err
	}
	totalWeight, err := bmath.Add(remaining, denorm)
	if err != nil {
		return err
	}
	if totalWeight.Gt(bmath.MaxTotalWeight) {
		return model.ErrBounds.Wrapf("total weight %s above maximum", bmath.FormatDecimal(totalWeight))
	}

	var transfers []transfer
	switch {
	case balance.Gt(rec.balance):
		transfers = append(transfers, p.pull(token, caller, new(uint256.Int).Sub(balance, rec.balance)))
	case balance.Lt(rec.balance):
		transfers = append(transfers, p.push(token, caller, new(uint256.Int).Sub(rec.balance, balance)))
	}
	if err := p.settle(nil, transfers...); err != nil {
		return err
	}

	rec.denorm = new(uint256.Int).Set(denorm)
	rec.balance = new(uint256.Int).Set(balance)
	p.totalWeight = totalWeight
	p.logger.Info("token rebound",
		zap.String("token", token.Hex()),
		amountField("balance", balance),
		amountField("denorm", denorm),
	)
	return nil
}

// Unbind removes token and refunds its balance to the controller. Tokens
// bound after it move down one index.
func (p *Pool) Unbind(caller, token common.Address) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	rec, err := p.record(token)
	if err != nil {
		return err
	}
	totalWeight, err := bmath.Sub(p.totalWeight, rec.denorm)
	if err != nil {
		return err
	}

	if err := p.settle(nil, p.push(token, caller, rec.balance)); err != nil {
		return err
	}

	p.tokens = append(p.tokens[:rec.index], p.tokens[rec.index+1:]...)
	for i := rec.index; i < len(p.tokens); i++ {
		p.records[p.tokens[i]].index = i
	}
	delete(p.records, token)
	p.totalWeight = totalWeight
	p.logger.Info("token unbound", zap.String("token", token.Hex()), amountField("refund", rec.balance))
	return nil
}

// SetSwapFee sets the swap fee within [MinFee, MaxFee].
func (p *Pool) SetSwapFee(caller common.Address, fee *uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	if fee.Lt(bmath.MinFee) || fee.Gt(bmath.MaxFee) {
		return model.ErrBounds.Wrapf("swap fee %s out of range", bmath.FormatDecimal(fee))
	}
	p.swapFee = new(uint256.Int).Set(fee)
	return nil
}

// SetReservesRatio sets the share of each swap's zero-fee input kept as
// reserve, at most MaxReservesRatio.
func (p *Pool) SetReservesRatio(caller common.Address, ratio *uint256.Int) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	if ratio.Gt(bmath.MaxReservesRatio) {
		return model.ErrBounds.Wrapf("reserves ratio %s above maximum", bmath.FormatDecimal(ratio))
	}
	p.reservesRatio = new(uint256.Int).Set(ratio)
	return nil
}

func (p *Pool) SetPublicSwap(caller common.Address, public bool) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	p.publicSwap = public
	return nil
}

// SetController hands control to next. Allowed in any state.
func (p *Pool) SetController(caller, next common.Address) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	p.controller = next
	p.logger.Info("controller changed", zap.String("controller", next.Hex()))
	return nil
}

// Finalize locks the configuration, enables public swaps and mints the
// initial share supply to the controller.
func (p *Pool) Finalize(caller common.Address) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	if err := p.requireController(caller); err != nil {
		return err
	}
	if err := p.requireOpen(); err != nil {
		return err
	}
	if len(p.tokens) < bmath.MinBoundTokens {
		return model.ErrState.Wrapf("pool needs %d tokens, has %d", bmath.MinBoundTokens, len(p.tokens))
	}

	if err := p.settle(nil, p.mint(caller, bmath.InitPoolSupply)); err != nil {
		return err
	}

	p.finalized = true
	p.publicSwap = true
	p.logger.Info("pool finalized", zap.Int("tokens", len(p.tokens)))
	return nil
}
