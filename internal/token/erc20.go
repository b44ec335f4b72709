// Package token provides in-memory fungible token ledgers: the pool-share
// token and the underlying tokens a pool holds in custody.
package token

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

// Metadata describes a token. It carries no business logic.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// ERC20 is a fungible token ledger with mint, burn, transfer and allowance
// bookkeeping.
type ERC20 struct {
	meta Metadata

	mu          sync.RWMutex
	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
}

func NewERC20(meta Metadata) *ERC20 {
	return &ERC20{
		meta:        meta,
		totalSupply: new(uint256.Int),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// NewPoolShare returns the pool-share token ledger.
func NewPoolShare() *ERC20 {
	return NewERC20(Metadata{Name: "Balancer Pool Token", Symbol: "BPT", Decimals: 18})
}

func (t *ERC20) Metadata() Metadata {
	return t.meta
}

func (t *ERC20) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply.Clone()
}

func (t *ERC20) BalanceOf(owner common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceOf(owner).Clone()
}

func (t *ERC20) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender).Clone()
}

// Mint creates amount new tokens owned by to.
func (t *ERC20) Mint(to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow {
		return model.ErrTransfer.Wrapf("%s mint overflows supply", t.meta.Symbol)
	}
	t.totalSupply = supply
	t.balances[to] = new(uint256.Int).Add(t.balanceOf(to), amount)
	return nil
}

// Burn destroys amount tokens held by from.
func (t *ERC20) Burn(from common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	balance := t.balanceOf(from)
	if balance.Lt(amount) {
		return model.ErrTransfer.Wrapf("%s burn %s exceeds balance %s of %s", t.meta.Symbol, amount.ToBig(), balance.ToBig(), from.Hex())
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)
	return nil
}

// Transfer moves amount from one holder to another.
func (t *ERC20) Transfer(from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount from src to dst on behalf of spender, consuming
// allowance unless spender is src.
func (t *ERC20) TransferFrom(spender, src, dst common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if spender != src {
		allowed := t.allowance(src, spender)
		if allowed.Lt(amount) {
			return model.ErrTransfer.Wrapf("%s allowance %s of %s for %s below %s", t.meta.Symbol, allowed.ToBig(), src.Hex(), spender.Hex(), amount.ToBig())
		}
		if err := t.move(src, dst, amount); err != nil {
			return err
		}
		t.setAllowance(src, spender, new(uint256.Int).Sub(allowed, amount))
		return nil
	}
	return t.move(src, dst, amount)
}

// Approve sets the allowance of spender over owner's tokens.
func (t *ERC20) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setAllowance(owner, spender, amount.Clone())
}

// IncreaseApproval raises the allowance of spender by amount.
func (t *ERC20) IncreaseApproval(owner, spender common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, overflow := new(uint256.Int).AddOverflow(t.allowance(owner, spender), amount)
	if overflow {
		return model.ErrTransfer.Wrapf("%s allowance overflow", t.meta.Symbol)
	}
	t.setAllowance(owner, spender, next)
	return nil
}

// DecreaseApproval lowers the allowance of spender by amount, flooring at
// zero.
func (t *ERC20) DecreaseApproval(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.allowance(owner, spender)
	if amount.Gt(current) {
		t.setAllowance(owner, spender, new(uint256.Int))
		return
	}
	t.setAllowance(owner, spender, new(uint256.Int).Sub(current, amount))
}

func (t *ERC20) move(from, to common.Address, amount *uint256.Int) error {
	balance := t.balanceOf(from)
	if balance.Lt(amount) {
		return model.ErrTransfer.Wrapf("%s transfer %s exceeds balance %s of %s", t.meta.Symbol, amount.ToBig(), balance.ToBig(), from.Hex())
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.balances[to] = new(uint256.Int).Add(t.balanceOf(to), amount)
	return nil
}

func (t *ERC20) balanceOf(owner common.Address) *uint256.Int {
	if balance, ok := t.balances[owner]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (t *ERC20) allowance(owner, spender common.Address) *uint256.Int {
	if spenders, ok := t.allowances[owner]; ok {
		if amount, ok := spenders[spender]; ok {
			return amount
		}
	}
	return new(uint256.Int)
}

func (t *ERC20) setAllowance(owner, spender common.Address, amount *uint256.Int) {
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount
}
