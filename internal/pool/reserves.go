package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

// Gulp sets the recorded balance of token to what the pool actually holds,
// less its reserve. Anyone may call it.
func (p *Pool) Gulp(token common.Address) error {
	if err := p.lock(); err != nil {
		return err
	}
	defer p.unlock()

	rec, err := p.record(token)
	if err != nil {
		return err
	}
	held, err := p.custody.CustodialBalance(token)
	if err != nil {
		return asTransferError("balance "+token.Hex(), err)
	}
	balance, err := bmath.Sub(held, rec.reserve)
	if err != nil {
		return model.ErrArithmetic.Wrapf("custodial balance of %s below reserve", token.Hex())
	}

	if !balance.Eq(rec.balance) {
		p.logger.Info("balance gulped",
			zap.String("token", token.Hex()),
			amountField("from", rec.balance),
			amountField("to", balance),
		)
	}
	rec.balance = balance
	return nil
}

// DrainTokenReserves pays the whole reserve of token to recipient. Only the
// pool's factory may call it.
func (p *Pool) DrainTokenReserves(caller, token, recipient common.Address) (*uint256.Int, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	if caller != p.factory {
		return nil, model.ErrPermission.Wrapf("%s is not the factory", caller.Hex())
	}
	if _, err := p.record(token); err != nil {
		return nil, err
	}
	drained, err := p.drain(recipient, token)
	if err != nil {
		return nil, err
	}
	return drained[0].Amount, nil
}

// DrainAllReserves pays the reserve of every bound token to recipient as one
// step: either every reserve is paid or none is. Only the pool's factory may
// call it.
func (p *Pool) DrainAllReserves(caller, recipient common.Address) ([]DrainEvent, error) {
	if err := p.lock(); err != nil {
		return nil, err
	}
	defer p.unlock()

	if caller != p.factory {
		return nil, model.ErrPermission.Wrapf("%s is not the factory", caller.Hex())
	}
	return p.drain(recipient, p.tokens...)
}

// drain zeroes the reserves of bound tokens and pushes them to recipient.
// A zero reserve moves nothing but is still reported.
func (p *Pool) drain(recipient common.Address, tokens ...common.Address) ([]DrainEvent, error) {
	saved := p.snapshot(tokens...)
	drained := make([]DrainEvent, 0, len(tokens))
	var transfers []transfer
	for _, token := range tokens {
		rec := p.records[token]
		amount := new(uint256.Int).Set(rec.reserve)
		rec.reserve = new(uint256.Int)
		if !amount.IsZero() {
			transfers = append(transfers, p.push(token, recipient, amount))
		}
		drained = append(drained, DrainEvent{Pool: p.address, Token: token, Recipient: recipient, Amount: amount})
	}
	if err := p.settle(saved, transfers...); err != nil {
		return nil, err
	}

	for _, ev := range drained {
		p.emit(ev)
		p.logger.Info("reserves drained",
			zap.String("token", ev.Token.Hex()),
			zap.String("recipient", recipient.Hex()),
			amountField("amount", ev.Amount),
		)
	}
	return drained, nil
}
