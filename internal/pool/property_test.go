package pool

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"weightedPool/internal/bmath"
	"weightedPool/internal/model"
)

// Random swap sequences never leave the pool owing more than it holds, and
// every accepted swap raises the spot price of what was bought.
func TestSwapSequenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := finalized(t)
		tokens := f.pool.CurrentTokens()

		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			in := rapid.IntRange(0, len(tokens)-1).Draw(rt, "in")
			out := rapid.IntRange(0, len(tokens)-2).Draw(rt, "out")
			if out >= in {
				out++
			}
			tokenIn, tokenOut := tokens[in], tokens[out]

			balance := f.balance(t, tokenIn)
			pct := rapid.Uint64Range(1, 40).Draw(rt, "pct")
			amountIn := new(uint256.Int).Div(new(uint256.Int).Mul(balance, uint256.NewInt(pct)), uint256.NewInt(100))
			held := f.ledgers[tokenIn].BalanceOf(user)
			if amountIn.Gt(held) {
				continue
			}

			before, err := f.pool.SpotPrice(tokenIn, tokenOut)
			if err != nil {
				rt.Fatalf("spot price: %v", err)
			}
			_, after, err := f.pool.SwapExactAmountIn(user, tokenIn, amountIn, tokenOut, new(uint256.Int), maxUint())
			if err != nil {
				if errors.Is(err, model.ErrArithmetic) || errors.Is(err, model.ErrBounds) {
					continue
				}
				rt.Fatalf("swap %d: %v", i, err)
			}
			if after.Lt(before) {
				rt.Fatalf("spot price fell from %s to %s", bmath.FormatDecimal(before), bmath.FormatDecimal(after))
			}

			for _, tok := range tokens {
				owed := new(uint256.Int).Add(f.balance(t, tok), f.reserve(t, tok))
				if f.ledgers[tok].BalanceOf(poolAddr).Lt(owed) {
					rt.Fatalf("custody of %s below owed %s", tok.Hex(), owed.Dec())
				}
			}
		}
	})
}
