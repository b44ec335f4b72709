package metrics

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"weightedPool/internal/bmath"
	"weightedPool/internal/pool"
)

var (
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	weth     = common.HexToAddress("0x0000000000000000000000000000000000000001")
	dai      = common.HexToAddress("0x0000000000000000000000000000000000000002")
	user     = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func TestPoolMetricsCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Emit(pool.SwapEvent{Pool: poolAddr, Caller: user, TokenIn: weth, TokenOut: dai, AmountIn: bmath.MustParseDecimal("1.5"), AmountOut: bmath.MustParseDecimal("300")})
	m.Emit(pool.SwapEvent{Pool: poolAddr, Caller: user, TokenIn: weth, TokenOut: dai, AmountIn: bmath.MustParseDecimal("0.5"), AmountOut: bmath.MustParseDecimal("99")})
	m.Emit(pool.ReservesEvent{Pool: poolAddr, Token: weth, Amount: bmath.MustParseDecimal("0.25")})
	m.Emit(pool.JoinEvent{Pool: poolAddr, Caller: user, TokenIn: dai, AmountIn: bmath.MustParseDecimal("10")})
	m.Emit(pool.ExitEvent{Pool: poolAddr, Caller: user, TokenOut: dai, AmountOut: bmath.MustParseDecimal("4")})
	m.Emit(pool.DrainEvent{Pool: poolAddr, Token: weth, Recipient: user, Amount: bmath.MustParseDecimal("0.25")})

	p := poolAddr.Hex()
	require.Equal(t, 2.0, testutil.ToFloat64(m.SwapsTotal.WithLabelValues(p, weth.Hex(), dai.Hex())))
	require.InDelta(t, 2.0, testutil.ToFloat64(m.SwapVolume.WithLabelValues(p, weth.Hex(), "in")), 1e-9)
	require.InDelta(t, 399.0, testutil.ToFloat64(m.SwapVolume.WithLabelValues(p, dai.Hex(), "out")), 1e-9)
	require.InDelta(t, 0.25, testutil.ToFloat64(m.ReservesAccrued.WithLabelValues(p, weth.Hex())), 1e-12)
	require.InDelta(t, 0.25, testutil.ToFloat64(m.ReservesDrained.WithLabelValues(p, weth.Hex())), 1e-12)
	require.InDelta(t, 10.0, testutil.ToFloat64(m.LiquidityAdded.WithLabelValues(p, dai.Hex())), 1e-9)
	require.InDelta(t, 4.0, testutil.ToFloat64(m.LiquidityRemoved.WithLabelValues(p, dai.Hex())), 1e-9)

	count, err := testutil.GatherAndCount(reg, "bpool_swaps_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewServerDisabled(t *testing.T) {
	s := NewServer("", prometheus.NewRegistry())
	require.Nil(t, s)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(context.Background()))
}
