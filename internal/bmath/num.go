package bmath

import (
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
)

// ToI truncates a fixed-point value to its integer part.
func ToI(a *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(a, BONE)
}

// Floor rounds a fixed-point value down to a whole number.
func Floor(a *uint256.Int) *uint256.Int {
	return new(uint256.Int).Mul(ToI(a), BONE)
}

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	c, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, model.ErrArithmetic.Wrap("add overflow")
	}
	return c, nil
}

func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	c, negative := SubSign(a, b)
	if negative {
		return nil, model.ErrArithmetic.Wrap("sub underflow")
	}
	return c, nil
}

// SubSign returns |a-b| and whether a < b.
func SubSign(a, b *uint256.Int) (*uint256.Int, bool) {
	if a.Cmp(b) >= 0 {
		return new(uint256.Int).Sub(a, b), false
	}
	return new(uint256.Int).Sub(b, a), true
}

// Mul multiplies two fixed-point values, rounding half up.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	c, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, model.ErrArithmetic.Wrap("mul overflow")
	}
	half := new(uint256.Int).Rsh(BONE, 1)
	if _, overflow = c.AddOverflow(c, half); overflow {
		return nil, model.ErrArithmetic.Wrap("mul overflow")
	}
	return c.Div(c, BONE), nil
}

// Div divides two fixed-point values, rounding half up.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, model.ErrArithmetic.Wrap("div by zero")
	}
	c, overflow := new(uint256.Int).MulOverflow(a, BONE)
	if overflow {
		return nil, model.ErrArithmetic.Wrap("div internal overflow")
	}
	half := new(uint256.Int).Rsh(b, 1)
	if _, overflow = c.AddOverflow(c, half); overflow {
		return nil, model.ErrArithmetic.Wrap("div internal overflow")
	}
	return c.Div(c, b), nil
}

// Powi raises a fixed-point base to a whole exponent by repeated squaring.
func Powi(a *uint256.Int, n uint64) (*uint256.Int, error) {
	z := BONE.Clone()
	if n%2 != 0 {
		z = a.Clone()
	}

	base := a.Clone()
	var err error
	for n /= 2; n != 0; n /= 2 {
		if base, err = Mul(base, base); err != nil {
			return nil, err
		}
		if n%2 != 0 {
			if z, err = Mul(z, base); err != nil {
				return nil, err
			}
		}
	}
	return z, nil
}

// Pow raises base to a fixed-point exponent. The whole part of the exponent
// is computed exactly with Powi and the fractional part with PowApprox, so
// the result carries at most BPowPrecision of series truncation error.
// base must lie in [MinBPowBase, MaxBPowBase].
func Pow(base, exp *uint256.Int) (*uint256.Int, error) {
	if base.Lt(MinBPowBase) {
		return nil, model.ErrArithmetic.Wrapf("pow base %s too low", base.ToBig())
	}
	if base.Gt(MaxBPowBase) {
		return nil, model.ErrArithmetic.Wrapf("pow base %s too high", base.ToBig())
	}

	whole := Floor(exp)
	remain := new(uint256.Int).Sub(exp, whole)

	n := ToI(exp)
	if !n.IsUint64() {
		return nil, model.ErrArithmetic.Wrap("pow exponent overflow")
	}
	wholePow, err := Powi(base, n.Uint64())
	if err != nil {
		return nil, err
	}
	if remain.IsZero() {
		return wholePow, nil
	}

	partial, err := PowApprox(base, remain, BPowPrecision)
	if err != nil {
		return nil, err
	}
	return Mul(wholePow, partial)
}

// PowApprox evaluates base^exp for exp < 1 with the binomial series
// (1+x)^a = sum (a choose k) x^k, stopping once a term drops below precision.
func PowApprox(base, exp, precision *uint256.Int) (*uint256.Int, error) {
	x, xneg := SubSign(base, BONE)
	term := BONE.Clone()
	sum := BONE.Clone()
	negative := false

	for i := uint64(1); term.Cmp(precision) >= 0; i++ {
		bigK := new(uint256.Int).Mul(uint256.NewInt(i), BONE)
		c, cneg := SubSign(exp, new(uint256.Int).Sub(bigK, BONE))

		cx, err := Mul(c, x)
		if err != nil {
			return nil, err
		}
		if term, err = Mul(term, cx); err != nil {
			return nil, err
		}
		if term, err = Div(term, bigK); err != nil {
			return nil, err
		}
		if term.IsZero() {
			break
		}

		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum, err = Sub(sum, term)
		} else {
			sum, err = Add(sum, term)
		}
		if err != nil {
			return nil, err
		}
	}
	return sum, nil
}
