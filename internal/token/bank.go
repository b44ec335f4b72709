package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

// Bank registers token ledgers by address.
type Bank struct {
	address common.Address

	mu     sync.RWMutex
	nonce  uint64
	tokens map[common.Address]*ERC20
}

// NewBank creates a bank whose token addresses derive from address.
func NewBank(address common.Address) *Bank {
	return &Bank{
		address: address,
		tokens:  make(map[common.Address]*ERC20),
	}
}

// CreateToken registers a new ledger and returns its address.
func (b *Bank) CreateToken(meta Metadata) (common.Address, *ERC20) {
	b.mu.Lock()
	defer b.mu.Unlock()

	addr := crypto.CreateAddress(b.address, b.nonce)
	b.nonce++
	ledger := NewERC20(meta)
	b.tokens[addr] = ledger
	return addr, ledger
}

// Token returns the ledger registered at addr.
func (b *Bank) Token(addr common.Address) (*ERC20, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ledger, ok := b.tokens[addr]
	if !ok {
		return nil, model.ErrTransfer.Wrapf("unknown token %s", addr.Hex())
	}
	return ledger, nil
}

// BalanceOf reports the balance of owner in token.
func (b *Bank) BalanceOf(_ context.Context, token, owner common.Address) (*uint256.Int, error) {
	ledger, err := b.Token(token)
	if err != nil {
		return nil, err
	}
	return ledger.BalanceOf(owner), nil
}

// Custody returns the transfer adapter for tokens held by holder.
func (b *Bank) Custody(holder common.Address) *Custody {
	return &Custody{bank: b, holder: holder}
}

// Custody moves tokens in and out of one holder's custody. Pulls spend the
// allowance the source granted to the holder.
type Custody struct {
	bank   *Bank
	holder common.Address
}

func (c *Custody) Holder() common.Address {
	return c.holder
}

func (c *Custody) Pull(token, from common.Address, amount *uint256.Int) error {
	ledger, err := c.bank.Token(token)
	if err != nil {
		return err
	}
	return ledger.TransferFrom(c.holder, from, c.holder, amount)
}

func (c *Custody) Push(token, to common.Address, amount *uint256.Int) error {
	ledger, err := c.bank.Token(token)
	if err != nil {
		return err
	}
	return ledger.Transfer(c.holder, to, amount)
}

func (c *Custody) CustodialBalance(token common.Address) (*uint256.Int, error) {
	ledger, err := c.bank.Token(token)
	if err != nil {
		return nil, err
	}
	return ledger.BalanceOf(c.holder), nil
}
