package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

// Event is emitted by a pool after a successful mutation.
type Event interface {
	EventName() string
	PoolAddress() common.Address
}

// SwapEvent records one swap.
type SwapEvent struct {
	Pool      common.Address
	Caller    common.Address
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

// JoinEvent records one token entering the pool through a join.
type JoinEvent struct {
	Pool     common.Address
	Caller   common.Address
	TokenIn  common.Address
	AmountIn *uint256.Int
}

// ExitEvent records one token leaving the pool through an exit.
type ExitEvent struct {
	Pool      common.Address
	Caller    common.Address
	TokenOut  common.Address
	AmountOut *uint256.Int
}

// ReservesEvent records reserve accrued by a swap.
type ReservesEvent struct {
	Pool   common.Address
	Token  common.Address
	Amount *uint256.Int
}

// DrainEvent records reserve paid out by the factory.
type DrainEvent struct {
	Pool      common.Address
	Token     common.Address
	Recipient common.Address
	Amount    *uint256.Int
}

func (e SwapEvent) EventName() string     { return model.EventSwap }
func (e JoinEvent) EventName() string     { return model.EventJoin }
func (e ExitEvent) EventName() string     { return model.EventExit }
func (e ReservesEvent) EventName() string { return model.EventAddReserves }
func (e DrainEvent) EventName() string    { return model.EventDrainReserves }

func (e SwapEvent) PoolAddress() common.Address     { return e.Pool }
func (e JoinEvent) PoolAddress() common.Address     { return e.Pool }
func (e ExitEvent) PoolAddress() common.Address     { return e.Pool }
func (e ReservesEvent) PoolAddress() common.Address { return e.Pool }
func (e DrainEvent) PoolAddress() common.Address    { return e.Pool }

// EventSink receives pool events. Emit runs after the mutation has
// committed and released the pool, in emission order, before the mutating
// call returns. A sink may read or mutate the pool.
type EventSink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Sinks fans events out to several sinks in order.
type Sinks []EventSink

func (s Sinks) Emit(ev Event) {
	for _, sink := range s {
		sink.Emit(ev)
	}
}

// Discard drops every event.
var Discard EventSink = SinkFunc(func(Event) {})

// Recorder keeps every emitted event in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}
