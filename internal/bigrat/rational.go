// Package bigrat implements the arbitrary-precision integer and rational
// number layer (C2): Chinese Remainder combination across successive
// primes, and Wang/MQRR rational reconstruction. Coefficients grow one
// prime at a time, so every value here is a *math/big.Int wrapped in a
// small value type rather than a hand-rolled bignum — see DESIGN.md for
// why no third-party bignum library is used for the core representation.
package bigrat

import "math/big"

// Rational is a reduced fraction Numerator/Denominator with a strictly
// positive denominator.
type Rational struct {
	Num *big.Int
	Den *big.Int
}

// NewRational builds a reduced fraction from arbitrary numerator and
// denominator, normalizing the sign onto the numerator.
func NewRational(num, den *big.Int) Rational {
	n := new(big.Int).Set(num)
	d := new(big.Int).Set(den)
	if d.Sign() == 0 {
		panic("bigrat: zero denominator")
	}
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), d)
	if g.Sign() != 0 && g.Cmp(big.NewInt(1)) != 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	return Rational{Num: n, Den: d}
}

// RationalFromInt64 builds a whole-number Rational.
func RationalFromInt64(n int64) Rational {
	return Rational{Num: big.NewInt(n), Den: big.NewInt(1)}
}

// IsOne reports whether the fraction equals exactly 1/1, the shape of a
// distinguished normalizer coefficient.
func (r Rational) IsOne() bool {
	return r.Num.Cmp(big.NewInt(1)) == 0 && r.Den.Cmp(big.NewInt(1)) == 0
}

// IsZero reports whether the numerator is zero.
func (r Rational) IsZero() bool { return r.Num.Sign() == 0 }

// Equal compares two reduced rationals for exact equality.
func (r Rational) Equal(o Rational) bool {
	return r.Num.Cmp(o.Num) == 0 && r.Den.Cmp(o.Den) == 0
}

func (r Rational) String() string {
	if r.Den.Cmp(big.NewInt(1)) == 0 {
		return r.Num.String()
	}
	return r.Num.String() + "/" + r.Den.String()
}

// Add returns r+o as a reduced fraction.
func (r Rational) Add(o Rational) Rational {
	num := new(big.Int).Add(new(big.Int).Mul(r.Num, o.Den), new(big.Int).Mul(o.Num, r.Den))
	den := new(big.Int).Mul(r.Den, o.Den)
	return NewRational(num, den)
}

// Mul returns r*o as a reduced fraction.
func (r Rational) Mul(o Rational) Rational {
	return NewRational(new(big.Int).Mul(r.Num, o.Num), new(big.Int).Mul(r.Den, o.Den))
}

// Div returns r/o as a reduced fraction. Panics if o is zero.
func (r Rational) Div(o Rational) Rational {
	if o.Num.Sign() == 0 {
		panic("bigrat: division by zero rational")
	}
	return NewRational(new(big.Int).Mul(r.Num, o.Den), new(big.Int).Mul(r.Den, o.Num))
}
