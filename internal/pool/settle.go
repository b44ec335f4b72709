package pool

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/model"
)

// transfer is one external effect of an operation and its compensation.
type transfer struct {
	desc  string
	check func() error
	do    func() error
	undo  func() error
}

func (p *Pool) pull(token, from common.Address, amount *uint256.Int) transfer {
	return transfer{
		desc: "pull " + token.Hex(),
		do:   func() error { return p.custody.Pull(token, from, amount) },
		undo: func() error { return p.custody.Push(token, from, amount) },
	}
}

func (p *Pool) push(token, to common.Address, amount *uint256.Int) transfer {
	return transfer{
		desc: "push " + token.Hex(),
		check: func() error {
			held, err := p.custody.CustodialBalance(token)
			if err != nil {
				return err
			}
			if held.Lt(amount) {
				return model.ErrTransfer.Wrapf("pool holds %s of %s, needs %s", held.Dec(), token.Hex(), amount.Dec())
			}
			return nil
		},
		do:   func() error { return p.custody.Push(token, to, amount) },
		undo: func() error { return p.custody.Pull(token, to, amount) },
	}
}

func (p *Pool) mint(to common.Address, amount *uint256.Int) transfer {
	return transfer{
		desc: "mint shares",
		do:   func() error { return p.shares.Mint(to, amount) },
		undo: func() error { return p.shares.Burn(to, amount) },
	}
}

func (p *Pool) burn(from common.Address, amount *uint256.Int) transfer {
	return transfer{
		desc: "burn shares",
		do:   func() error { return p.shares.Burn(from, amount) },
		undo: func() error { return p.shares.Mint(from, amount) },
	}
}

// settle runs the transfers of one operation in order. On failure the
// records touched by the operation are restored from saved and completed
// transfers are reversed. Callers update records before calling settle.
func (p *Pool) settle(saved map[common.Address]*record, transfers ...transfer) error {
	for _, t := range transfers {
		if t.check == nil {
			continue
		}
		if err := t.check(); err != nil {
			p.restore(saved)
			return asTransferError(t.desc, err)
		}
	}
	for i, t := range transfers {
		if err := t.do(); err != nil {
			p.restore(saved)
			for j := i - 1; j >= 0; j-- {
				if uerr := transfers[j].undo(); uerr != nil {
					p.logger.Error("revert transfer failed",
						zap.String("transfer", transfers[j].desc),
						zap.Error(uerr),
						zap.NamedError("cause", err),
					)
				}
			}
			return asTransferError(t.desc, err)
		}
	}
	return nil
}

// snapshot copies the records of tokens about to change.
func (p *Pool) snapshot(tokens ...common.Address) map[common.Address]*record {
	saved := make(map[common.Address]*record, len(tokens))
	for _, token := range tokens {
		if rec, ok := p.records[token]; ok {
			saved[token] = rec.clone()
		}
	}
	return saved
}

func (p *Pool) restore(saved map[common.Address]*record) {
	for token, rec := range saved {
		p.records[token] = rec
	}
}

func asTransferError(desc string, err error) error {
	if errors.Is(err, model.ErrTransfer) {
		return err
	}
	return model.ErrTransfer.Wrapf("%s: %v", desc, err)
}
