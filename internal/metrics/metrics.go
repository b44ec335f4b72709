// Package metrics exports pool activity as Prometheus series.
package metrics

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"weightedPool/internal/pool"
)

// PoolMetrics counts pool events. It is an event sink.
type PoolMetrics struct {
	SwapsTotal       *prometheus.CounterVec
	SwapVolume       *prometheus.CounterVec
	LiquidityAdded   *prometheus.CounterVec
	LiquidityRemoved *prometheus.CounterVec
	ReservesAccrued  *prometheus.CounterVec
	ReservesDrained  *prometheus.CounterVec
}

// New registers the pool series with reg.
func New(reg prometheus.Registerer) *PoolMetrics {
	factory := promauto.With(reg)
	return &PoolMetrics{
		SwapsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "swaps_total",
				Help:      "Swaps executed, by pool and token pair.",
			},
			[]string{"pool", "token_in", "token_out"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "swap_volume_tokens",
				Help:      "Token units swapped, by direction.",
			},
			[]string{"pool", "token", "direction"},
		),
		LiquidityAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "liquidity_added_tokens",
				Help:      "Token units deposited through joins.",
			},
			[]string{"pool", "token"},
		),
		LiquidityRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "liquidity_removed_tokens",
				Help:      "Token units withdrawn through exits.",
			},
			[]string{"pool", "token"},
		),
		ReservesAccrued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "reserves_accrued_tokens",
				Help:      "Token units skimmed into the reserve by swaps.",
			},
			[]string{"pool", "token"},
		),
		ReservesDrained: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bpool",
				Name:      "reserves_drained_tokens",
				Help:      "Token units paid out of the reserve.",
			},
			[]string{"pool", "token"},
		),
	}
}

// Emit implements pool.EventSink.
func (m *PoolMetrics) Emit(ev pool.Event) {
	addr := ev.PoolAddress().Hex()
	switch e := ev.(type) {
	case pool.SwapEvent:
		m.SwapsTotal.WithLabelValues(addr, e.TokenIn.Hex(), e.TokenOut.Hex()).Inc()
		m.SwapVolume.WithLabelValues(addr, e.TokenIn.Hex(), "in").Add(tokens(e.AmountIn))
		m.SwapVolume.WithLabelValues(addr, e.TokenOut.Hex(), "out").Add(tokens(e.AmountOut))
	case pool.JoinEvent:
		m.LiquidityAdded.WithLabelValues(addr, e.TokenIn.Hex()).Add(tokens(e.AmountIn))
	case pool.ExitEvent:
		m.LiquidityRemoved.WithLabelValues(addr, e.TokenOut.Hex()).Add(tokens(e.AmountOut))
	case pool.ReservesEvent:
		m.ReservesAccrued.WithLabelValues(addr, e.Token.Hex()).Add(tokens(e.Amount))
	case pool.DrainEvent:
		m.ReservesDrained.WithLabelValues(addr, e.Token.Hex()).Add(tokens(e.Amount))
	}
}

var wad = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// tokens converts an 18-decimal amount to whole token units.
func tokens(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), wad).Float64()
	return f
}
