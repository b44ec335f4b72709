package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"weightedPool/internal/model"
)

// Accumulator holds flow deltas of one token through one pool since the
// last flush.
type Accumulator struct {
	PoolAddress     string
	Token           string
	FirstSequence   uint64
	LastSequence    uint64
	SwapsIn         uint64
	SwapsOut        uint64
	VolumeIn        *big.Int
	VolumeOut       *big.Int
	Joined          *big.Int
	Exited          *big.Int
	ReservesAccrued *big.Int
	ReservesDrained *big.Int
}

func NewAccumulator(pool, token string) *Accumulator {
	return &Accumulator{
		PoolAddress:     pool,
		Token:           token,
		VolumeIn:        big.NewInt(0),
		VolumeOut:       big.NewInt(0),
		Joined:          big.NewInt(0),
		Exited:          big.NewInt(0),
		ReservesAccrued: big.NewInt(0),
		ReservesDrained: big.NewInt(0),
	}
}

func (a *Accumulator) touch(sequence uint64) {
	if a.FirstSequence == 0 || sequence < a.FirstSequence {
		a.FirstSequence = sequence
	}
	if sequence > a.LastSequence {
		a.LastSequence = sequence
	}
}

// Empty reports whether nothing was accumulated.
func (a *Accumulator) Empty() bool {
	return a.FirstSequence == 0
}

// Metrics renders the accumulated deltas with 18 fractional digits.
func (a *Accumulator) Metrics() model.TokenFlowMetrics {
	return model.TokenFlowMetrics{
		PoolAddress:     a.PoolAddress,
		Token:           a.Token,
		FirstSequence:   a.FirstSequence,
		LastSequence:    a.LastSequence,
		SwapsIn:         a.SwapsIn,
		SwapsOut:        a.SwapsOut,
		VolumeIn:        formatTokenAmount(a.VolumeIn, tokenDecimals),
		VolumeOut:       formatTokenAmount(a.VolumeOut, tokenDecimals),
		Joined:          formatTokenAmount(a.Joined, tokenDecimals),
		Exited:          formatTokenAmount(a.Exited, tokenDecimals),
		ReservesAccrued: formatTokenAmount(a.ReservesAccrued, tokenDecimals),
		ReservesDrained: formatTokenAmount(a.ReservesDrained, tokenDecimals),
	}
}

// apply routes one typed event to the accumulators it touches. get
// returns the accumulator of a (pool, token) pair.
func apply(record model.TypedEventRecord, get func(token string) *Accumulator) error {
	switch record.EventName {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		amountIn, err := parseBigInt(swap.AmountIn)
		if err != nil {
			return err
		}
		amountOut, err := parseBigInt(swap.AmountOut)
		if err != nil {
			return err
		}
		in := get(swap.TokenIn)
		in.touch(record.Sequence)
		in.SwapsIn++
		in.VolumeIn.Add(in.VolumeIn, amountIn)
		out := get(swap.TokenOut)
		out.touch(record.Sequence)
		out.SwapsOut++
		out.VolumeOut.Add(out.VolumeOut, amountOut)
	case model.EventJoin:
		var join model.JoinEventData
		if err := json.Unmarshal(record.Decoded, &join); err != nil {
			return fmt.Errorf("decode join: %w", err)
		}
		return addTo(get(join.TokenIn), record.Sequence, join.AmountIn, func(a *Accumulator) *big.Int { return a.Joined })
	case model.EventExit:
		var exit model.ExitEventData
		if err := json.Unmarshal(record.Decoded, &exit); err != nil {
			return fmt.Errorf("decode exit: %w", err)
		}
		return addTo(get(exit.TokenOut), record.Sequence, exit.AmountOut, func(a *Accumulator) *big.Int { return a.Exited })
	case model.EventAddReserves:
		var add model.AddReservesEventData
		if err := json.Unmarshal(record.Decoded, &add); err != nil {
			return fmt.Errorf("decode add reserves: %w", err)
		}
		return addTo(get(add.Token), record.Sequence, add.Amount, func(a *Accumulator) *big.Int { return a.ReservesAccrued })
	case model.EventDrainReserves:
		var drain model.DrainReservesEventData
		if err := json.Unmarshal(record.Decoded, &drain); err != nil {
			return fmt.Errorf("decode drain reserves: %w", err)
		}
		return addTo(get(drain.Token), record.Sequence, drain.Amount, func(a *Accumulator) *big.Int { return a.ReservesDrained })
	default:
		return fmt.Errorf("unsupported event %s", record.EventName)
	}
	return nil
}

func addTo(acc *Accumulator, sequence uint64, amount string, field func(*Accumulator) *big.Int) error {
	value, err := parseBigInt(amount)
	if err != nil {
		return err
	}
	acc.touch(sequence)
	target := field(acc)
	target.Add(target, value)
	return nil
}
