package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
	"weightedPool/internal/pool"
)

// Encoder renders pool events as ABI-encoded log records.
type Encoder struct {
	poolABI abi.ABI
}

// NewEncoder builds an encoder over the pool event ABI.
func NewEncoder() (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &Encoder{poolABI: poolABI}, nil
}

// Encode fills Address, Topics and Data of a log record for ev. Sequencing
// fields are left to the caller.
func (e *Encoder) Encode(ev pool.Event) (model.LogRecord, error) {
	var (
		indexed []common.Address
		values  []interface{}
	)
	switch v := ev.(type) {
	case pool.SwapEvent:
		indexed = []common.Address{v.Caller, v.TokenIn, v.TokenOut}
		values = []interface{}{toBig(v.AmountIn), toBig(v.AmountOut)}
	case pool.JoinEvent:
		indexed = []common.Address{v.Caller, v.TokenIn}
		values = []interface{}{toBig(v.AmountIn)}
	case pool.ExitEvent:
		indexed = []common.Address{v.Caller, v.TokenOut}
		values = []interface{}{toBig(v.AmountOut)}
	case pool.ReservesEvent:
		indexed = []common.Address{v.Token}
		values = []interface{}{toBig(v.Amount)}
	case pool.DrainEvent:
		indexed = []common.Address{v.Token, v.Recipient}
		values = []interface{}{toBig(v.Amount)}
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported event %T", ev)
	}

	event, ok := e.poolABI.Events[ev.EventName()]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("event %s not in abi", ev.EventName())
	}
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", event.Name, err)
	}

	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, event.ID.Hex())
	for _, addr := range indexed {
		topics = append(topics, common.BytesToHash(addr.Bytes()).Hex())
	}

	return model.LogRecord{
		Address: ev.PoolAddress().Hex(),
		Topics:  topics,
		Data:    hexutil.Encode(data),
	}, nil
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
