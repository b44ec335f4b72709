// Package factory creates pools and collects their protocol reserves.
package factory

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/model"
	"weightedPool/internal/pool"
	"weightedPool/internal/token"
)

// Collection is the reserve drained from one token of a pool.
type Collection struct {
	Token  common.Address
	Amount *uint256.Int
}

// Factory owns the pool registry. Its admin controls where collected
// reserves go; pools route reserve drains only through it.
type Factory struct {
	address common.Address
	bank    *token.Bank
	events  pool.EventSink
	logger  *zap.Logger

	mu              sync.RWMutex
	admin           common.Address
	reservesAddress common.Address
	nonce           uint64
	pools           map[common.Address]*pool.Pool
	shares          map[common.Address]*token.ERC20
	order           []common.Address
}

// New creates a factory. The reserves address starts as admin.
func New(address, admin common.Address, bank *token.Bank, events pool.EventSink, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		address:         address,
		bank:            bank,
		events:          events,
		logger:          logger,
		admin:           admin,
		reservesAddress: admin,
		pools:           make(map[common.Address]*pool.Pool),
		shares:          make(map[common.Address]*token.ERC20),
	}
}

func (f *Factory) Address() common.Address { return f.address }

// NewPool deploys an open pool controlled by creator.
func (f *Factory) NewPool(creator common.Address) *pool.Pool {
	f.mu.Lock()
	defer f.mu.Unlock()

	addr := crypto.CreateAddress(f.address, f.nonce)
	f.nonce++

	shares := token.NewPoolShare()
	p := pool.New(pool.Config{
		Address:    addr,
		Controller: creator,
		Factory:    f.address,
		Events:     f.events,
	}, f.bank.Custody(addr), shares, f.logger)

	f.pools[addr] = p
	f.shares[addr] = shares
	f.order = append(f.order, addr)
	f.logger.Info("pool created", zap.String("pool", addr.Hex()), zap.String("controller", creator.Hex()))
	return p
}

func (f *Factory) IsPool(addr common.Address) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.pools[addr]
	return ok
}

// Pool returns the pool deployed at addr.
func (f *Factory) Pool(addr common.Address) (*pool.Pool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.pools[addr]
	if !ok {
		return nil, model.ErrState.Wrapf("unknown pool %s", addr.Hex())
	}
	return p, nil
}

// Shares returns the share ledger of the pool at addr.
func (f *Factory) Shares(addr common.Address) (*token.ERC20, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.shares[addr]
	if !ok {
		return nil, model.ErrState.Wrapf("unknown pool %s", addr.Hex())
	}
	return s, nil
}

// Pools lists pool addresses in creation order.
func (f *Factory) Pools() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]common.Address(nil), f.order...)
}

func (f *Factory) Admin() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.admin
}

func (f *Factory) SetAdmin(caller, next common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.admin {
		return model.ErrPermission.Wrapf("%s is not the factory admin", caller.Hex())
	}
	f.admin = next
	f.logger.Info("factory admin changed", zap.String("admin", next.Hex()))
	return nil
}

func (f *Factory) ReservesAddress() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reservesAddress
}

func (f *Factory) SetReservesAddress(caller, addr common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if caller != f.admin {
		return model.ErrPermission.Wrapf("%s is not the factory admin", caller.Hex())
	}
	f.reservesAddress = addr
	f.logger.Info("reserves address changed", zap.String("reserves_address", addr.Hex()))
	return nil
}

// CollectTokenReserves drains the reserve of every bound token of the pool
// at poolAddr to the reserves address. A failed drain leaves every reserve
// in place.
func (f *Factory) CollectTokenReserves(caller, poolAddr common.Address) ([]Collection, error) {
	f.mu.RLock()
	admin, recipient := f.admin, f.reservesAddress
	p, ok := f.pools[poolAddr]
	f.mu.RUnlock()

	if caller != admin {
		return nil, model.ErrPermission.Wrapf("%s is not the factory admin", caller.Hex())
	}
	if !ok {
		return nil, model.ErrState.Wrapf("unknown pool %s", poolAddr.Hex())
	}

	drained, err := p.DrainAllReserves(f.address, recipient)
	if err != nil {
		return nil, err
	}
	collected := make([]Collection, 0, len(drained))
	for _, ev := range drained {
		collected = append(collected, Collection{Token: ev.Token, Amount: ev.Amount})
	}
	f.logger.Info("reserves collected",
		zap.String("pool", poolAddr.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.Int("tokens", len(collected)),
	)
	return collected, nil
}
