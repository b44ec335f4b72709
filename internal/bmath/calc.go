package bmath

import "github.com/holiman/uint256"

// calc chains fixed-point operations and keeps the first error, so curve
// formulas read as straight-line arithmetic. After a failure every further
// step returns zero.
type calc struct {
	err error
}

func (c *calc) step(fn func(a, b *uint256.Int) (*uint256.Int, error), a, b *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	out, err := fn(a, b)
	if err != nil {
		c.err = err
		return new(uint256.Int)
	}
	return out
}

func (c *calc) add(a, b *uint256.Int) *uint256.Int { return c.step(Add, a, b) }
func (c *calc) sub(a, b *uint256.Int) *uint256.Int { return c.step(Sub, a, b) }
func (c *calc) mul(a, b *uint256.Int) *uint256.Int { return c.step(Mul, a, b) }
func (c *calc) div(a, b *uint256.Int) *uint256.Int { return c.step(Div, a, b) }
func (c *calc) pow(a, b *uint256.Int) *uint256.Int { return c.step(Pow, a, b) }

func (c *calc) result(v *uint256.Int) (*uint256.Int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return v, nil
}
