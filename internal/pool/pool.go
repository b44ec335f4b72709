// Package pool implements a weighted constant-mean liquidity pool with a
// protocol reserve skimmed from swap inputs.
package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

// TokenTransfer moves underlying tokens in and out of the pool's custody.
// Its methods run while the pool is locked: an implementation must not call
// back into the pool, not even its read accessors.
type TokenTransfer interface {
	Pull(token, from common.Address, amount *uint256.Int) error
	Push(token, to common.Address, amount *uint256.Int) error
	CustodialBalance(token common.Address) (*uint256.Int, error)
}

// ShareLedger is the pool share token.
type ShareLedger interface {
	Mint(to common.Address, amount *uint256.Int) error
	Burn(from common.Address, amount *uint256.Int) error
	TotalSupply() *uint256.Int
}

// Config identifies a pool and its privileged accounts.
type Config struct {
	Address    common.Address
	Controller common.Address
	Factory    common.Address
	Events     EventSink
}

type record struct {
	index   int
	denorm  *uint256.Int
	balance *uint256.Int
	reserve *uint256.Int
}

func (r *record) clone() *record {
	return &record{
		index:   r.index,
		denorm:  new(uint256.Int).Set(r.denorm),
		balance: new(uint256.Int).Set(r.balance),
		reserve: new(uint256.Int).Set(r.reserve),
	}
}

// Pool holds bound tokens, their weights and balances, and the per-token
// reserves accrued from swaps. Mutating calls never wait: a call made while
// another mutation is in flight fails with a reentrancy error.
type Pool struct {
	address common.Address
	factory common.Address
	custody TokenTransfer
	shares  ShareLedger
	events  EventSink
	logger  *zap.Logger

	mu            sync.RWMutex
	controller    common.Address
	publicSwap    bool
	finalized     bool
	swapFee       *uint256.Int
	reservesRatio *uint256.Int
	totalWeight   *uint256.Int
	tokens        []common.Address
	records       map[common.Address]*record
	pending       []Event
}

// New creates an open pool with the minimum swap fee and no reserve ratio.
func New(cfg Config, custody TokenTransfer, shares ShareLedger, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	events := cfg.Events
	if events == nil {
		events = Discard
	}
	return &Pool{
		address:       cfg.Address,
		factory:       cfg.Factory,
		custody:       custody,
		shares:        shares,
		events:        events,
		logger:        logger.With(zap.String("pool", cfg.Address.Hex())),
		controller:    cfg.Controller,
		swapFee:       new(uint256.Int).Set(bmath.MinFee),
		reservesRatio: new(uint256.Int).Set(bmath.DefaultReservesRatio),
		totalWeight:   new(uint256.Int),
		records:       make(map[common.Address]*record),
	}
}

// lock acquires the write lock without waiting.
func (p *Pool) lock() error {
	if !p.mu.TryLock() {
		return model.ErrState.Wrap("reentrant call")
	}
	return nil
}

// unlock releases the write lock and only then hands the events queued by
// the mutation to the sink, so sinks see committed state and may read it.
func (p *Pool) unlock() {
	queued := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, ev := range queued {
		p.events.Emit(ev)
	}
}

// emit queues ev until the running mutation releases the lock.
func (p *Pool) emit(ev Event) {
	p.pending = append(p.pending, ev)
}

func (p *Pool) requireController(caller common.Address) error {
	if caller != p.controller {
		return model.ErrPermission.Wrapf("%s is not the controller", caller.Hex())
	}
	return nil
}

func (p *Pool) requireOpen() error {
	if p.finalized {
		return model.ErrState.Wrap("pool is finalized")
	}
	return nil
}

func (p *Pool) requireFinalized() error {
	if !p.finalized {
		return model.ErrState.Wrap("pool is not finalized")
	}
	return nil
}

func (p *Pool) record(token common.Address) (*record, error) {
	rec, ok := p.records[token]
	if !ok {
		return nil, model.ErrTokenNotBound.Wrap(token.Hex())
	}
	return rec, nil
}

// pair resolves both sides of a swap.
func (p *Pool) pair(tokenIn, tokenOut common.Address) (*record, *record, error) {
	in, err := p.record(tokenIn)
	if err != nil {
		return nil, nil, err
	}
	out, err := p.record(tokenOut)
	if err != nil {
		return nil, nil, err
	}
	if tokenIn == tokenOut {
		return nil, nil, model.ErrBounds.Wrap("tokenIn equals tokenOut")
	}
	return in, out, nil
}

func amountField(key string, v *uint256.Int) zap.Field {
	return zap.String(key, bmath.FormatDecimal(v))
}
