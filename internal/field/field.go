// Package field implements word-sized modular arithmetic over 𝔽ₚ for a
// fixed table of primes just under 2^63.
//
// Rather than keep the active prime as a process-wide global, every
// element carries an explicit Field value. A Field is cheap to copy (a
// single uint64) and is only ever swapped at new-prime barriers, when no
// worker is mid-evaluation (see internal/reconstruct).
package field

import (
	"fmt"
	"math/bits"
)

// Field is the active modulus for a set of Elem values. Two Elem values
// may only be combined if they share the same Field.
type Field struct {
	p uint64
}

// New wraps a prime as a Field. It panics if p is even, zero, or does not
// fit in 63 bits, since FireFly's probe arithmetic assumes odd word-sized
// primes with headroom for one extra multiply-add bit.
func New(p uint64) Field {
	if p == 0 || p%2 == 0 || p>>63 != 0 {
		panic(fmt.Sprintf("field: invalid prime %d", p))
	}
	return Field{p: p}
}

// Prime returns the modulus.
func (f Field) Prime() uint64 { return f.p }

// Elem is a value in 𝔽ₚ for some Field, always kept reduced to [0, p).
type Elem struct {
	v uint64
	f Field
}

// Zero returns the additive identity of f.
func Zero(f Field) Elem { return Elem{v: 0, f: f} }

// One returns the multiplicative identity of f.
func One(f Field) Elem { return Elem{v: 1 % f.p, f: f} }

// FromUint64 reduces n modulo f's prime.
func FromUint64(f Field, n uint64) Elem { return Elem{v: n % f.p, f: f} }

// FromInt64 reduces a signed integer modulo f's prime.
func FromInt64(f Field, n int64) Elem {
	if n >= 0 {
		return FromUint64(f, uint64(n))
	}
	m := uint64(-n) % f.p
	if m == 0 {
		return Elem{v: 0, f: f}
	}
	return Elem{v: f.p - m, f: f}
}

// Field returns the element's field.
func (e Elem) Field() Field { return e.f }

// Uint64 returns the canonical representative in [0, p).
func (e Elem) Uint64() uint64 { return e.v }

// IsZero reports whether e is the additive identity.
func (e Elem) IsZero() bool { return e.v == 0 }

func (e Elem) mustMatch(o Elem) {
	if e.f.p != o.f.p {
		panic(fmt.Sprintf("field: mismatched fields %d and %d", e.f.p, o.f.p))
	}
}

// Add returns e+o mod p.
func (e Elem) Add(o Elem) Elem {
	e.mustMatch(o)
	s := e.v + o.v
	if s >= e.f.p || s < e.v { // s < e.v catches uint64 overflow
		s -= e.f.p
	}
	return Elem{v: s, f: e.f}
}

// Sub returns e-o mod p.
func (e Elem) Sub(o Elem) Elem {
	e.mustMatch(o)
	if e.v >= o.v {
		return Elem{v: e.v - o.v, f: e.f}
	}
	return Elem{v: e.f.p - (o.v - e.v), f: e.f}
}

// Neg returns -e mod p.
func (e Elem) Neg() Elem {
	if e.v == 0 {
		return e
	}
	return Elem{v: e.f.p - e.v, f: e.f}
}

// Mul returns e*o mod p using a 128-bit intermediate product.
func (e Elem) Mul(o Elem) Elem {
	e.mustMatch(o)
	hi, lo := bits.Mul64(e.v, o.v)
	_, rem := bits.Div64(hi, lo, e.f.p)
	return Elem{v: rem, f: e.f}
}

// Inv returns the multiplicative inverse of e. It panics on zero, matching
// the C7 contract that division by zero is a caller bug, never silently
// tolerated.
func (e Elem) Inv() Elem {
	if e.v == 0 {
		panic("field: inverse of zero")
	}
	// Extended Euclidean algorithm on (p, v).
	var oldR, r = int64(e.f.p), int64(e.v)
	var oldS, s int64 = 0, 1
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	return FromInt64(e.f, oldS)
}

// Pow returns e^n mod p. Negative n computes inv(e)^(-n).
func (e Elem) Pow(n int64) Elem {
	if n < 0 {
		return e.Inv().Pow(-n)
	}
	result := One(e.f)
	base := e
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Equal reports whether e and o hold the same value in the same field.
func (e Elem) Equal(o Elem) bool {
	return e.f.p == o.f.p && e.v == o.v
}

func (e Elem) String() string { return fmt.Sprintf("%d", e.v) }
