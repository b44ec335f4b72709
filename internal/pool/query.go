package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Factory() common.Address { return p.factory }

func (p *Pool) Controller() common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.controller
}

func (p *Pool) IsPublicSwap() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.publicSwap
}

func (p *Pool) IsFinalized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finalized
}

func (p *Pool) IsBound(token common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.records[token]
	return ok
}

func (p *Pool) NumTokens() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tokens)
}

// CurrentTokens returns the bound tokens in index order.
func (p *Pool) CurrentTokens() []common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]common.Address(nil), p.tokens...)
}

// FinalTokens is CurrentTokens for a finalized pool.
func (p *Pool) FinalTokens() ([]common.Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.requireFinalized(); err != nil {
		return nil, err
	}
	return append([]common.Address(nil), p.tokens...), nil
}

func (p *Pool) SwapFee() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(uint256.Int).Set(p.swapFee)
}

func (p *Pool) ReservesRatio() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(uint256.Int).Set(p.reservesRatio)
}

func (p *Pool) TotalDenormalizedWeight() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(uint256.Int).Set(p.totalWeight)
}

func (p *Pool) DenormalizedWeight(token common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, err := p.record(token)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(rec.denorm), nil
}

// NormalizedWeight is the token's share of the total weight.
func (p *Pool) NormalizedWeight(token common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, err := p.record(token)
	if err != nil {
		return nil, err
	}
	return bmath.Div(rec.denorm, p.totalWeight)
}

func (p *Pool) Balance(token common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, err := p.record(token)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(rec.balance), nil
}

// Reserves is the amount of token owed to the protocol.
func (p *Pool) Reserves(token common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, err := p.record(token)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(rec.reserve), nil
}

func (p *Pool) SpotPrice(tokenIn, tokenOut common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	in, out, err := p.pair(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return bmath.SpotPrice(in.balance, in.denorm, out.balance, out.denorm, p.swapFee)
}

func (p *Pool) SpotPriceSansFee(tokenIn, tokenOut common.Address) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	in, out, err := p.pair(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return bmath.SpotPriceSansFee(in.balance, in.denorm, out.balance, out.denorm)
}

// TotalSupply is the outstanding pool share supply.
func (p *Pool) TotalSupply() *uint256.Int {
	return p.shares.TotalSupply()
}

// Snapshot copies the pool state for storage and reporting.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := model.PoolSnapshot{
		Address:       p.address.Hex(),
		Controller:    p.controller.Hex(),
		Factory:       p.factory.Hex(),
		Finalized:     p.finalized,
		PublicSwap:    p.publicSwap,
		SwapFee:       p.swapFee.Dec(),
		ReservesRatio: p.reservesRatio.Dec(),
		TotalWeight:   p.totalWeight.Dec(),
		TotalSupply:   p.shares.TotalSupply().Dec(),
		Tokens:        make([]model.TokenRecord, 0, len(p.tokens)),
	}
	for _, token := range p.tokens {
		rec := p.records[token]
		snap.Tokens = append(snap.Tokens, model.TokenRecord{
			Address:      token.Hex(),
			Index:        rec.index,
			DenormWeight: rec.denorm.Dec(),
			Balance:      rec.balance.Dec(),
			Reserve:      rec.reserve.Dec(),
		})
	}
	return snap
}
