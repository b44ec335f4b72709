// Package audit checks that pools hold at least what their ledgers owe.
package audit

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/model"
)

// BalanceReader reports token balances. token.Bank and chain.Client both
// satisfy it.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*uint256.Int, error)
}

// TokenResult is the audit of one bound token.
type TokenResult struct {
	Token     string `json:"token"`
	Custodial string `json:"custodial"`
	Balance   string `json:"balance"`
	Reserve   string `json:"reserve"`
	// Surplus is what a gulp would add to the balance. Empty when short.
	Surplus   string `json:"surplus,omitempty"`
	Shortfall string `json:"shortfall,omitempty"`
	OK        bool   `json:"ok"`
}

// Report is the audit of one pool snapshot.
type Report struct {
	Pool   string        `json:"pool"`
	OK     bool          `json:"ok"`
	Tokens []TokenResult `json:"tokens"`
}

// Auditor compares pool snapshots with custodial balances.
type Auditor struct {
	reader BalanceReader
	logger *zap.Logger
}

func New(reader BalanceReader, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{reader: reader, logger: logger}
}

// Check verifies custodial >= balance + reserve for every token of snap.
func (a *Auditor) Check(ctx context.Context, snap model.PoolSnapshot) (Report, error) {
	if !common.IsHexAddress(snap.Address) {
		return Report{}, fmt.Errorf("invalid pool address: %s", snap.Address)
	}
	poolAddr := common.HexToAddress(snap.Address)

	report := Report{Pool: poolAddr.Hex(), OK: true, Tokens: make([]TokenResult, 0, len(snap.Tokens))}
	for _, rec := range snap.Tokens {
		if !common.IsHexAddress(rec.Address) {
			return Report{}, fmt.Errorf("invalid token address: %s", rec.Address)
		}
		tok := common.HexToAddress(rec.Address)

		balance, err := uint256.FromDecimal(rec.Balance)
		if err != nil {
			return Report{}, fmt.Errorf("parse balance of %s: %w", rec.Address, err)
		}
		reserve, err := uint256.FromDecimal(rec.Reserve)
		if err != nil {
			return Report{}, fmt.Errorf("parse reserve of %s: %w", rec.Address, err)
		}
		custodial, err := a.reader.BalanceOf(ctx, tok, poolAddr)
		if err != nil {
			return Report{}, fmt.Errorf("read custodial balance of %s: %w", rec.Address, err)
		}

		owed, overflow := new(uint256.Int).AddOverflow(balance, reserve)
		if overflow {
			return Report{}, fmt.Errorf("owed amount of %s overflows", rec.Address)
		}
		result := TokenResult{
			Token:     tok.Hex(),
			Custodial: custodial.Dec(),
			Balance:   balance.Dec(),
			Reserve:   reserve.Dec(),
			OK:        !custodial.Lt(owed),
		}
		if result.OK {
			result.Surplus = new(uint256.Int).Sub(custodial, owed).Dec()
		} else {
			result.Shortfall = new(uint256.Int).Sub(owed, custodial).Dec()
			report.OK = false
			a.logger.Warn("custody below owed",
				zap.String("pool", report.Pool),
				zap.String("token", result.Token),
				zap.String("shortfall", result.Shortfall),
			)
		}
		report.Tokens = append(report.Tokens, result)
	}
	return report, nil
}
