package bigrat

import "math/big"

// Method selects which rational reconstruction algorithm to run over a
// combined CRT residue: an alternative MQRR variant is selectable for
// sparser results.
type Method int

const (
	// Wang is the classical extended-Euclidean algorithm truncated at the
	// bound |n|,d <= sqrt(p/2).
	Wang Method = iota
	// MQRR is Monagan's Maximal Quotient Rational Reconstruction, which
	// tends to find smaller/sparser denominators at the cost of an extra
	// heuristic accept/reject step.
	MQRR
)

// Reconstruct recovers (n, d) such that a ≡ n * d^-1 (mod modulus), with
// gcd(n, d) = 1 and d > 0, subject to the method's size bound. ok is false
// if no such pair satisfying the bound could be found — the caller
// (RatReconst) treats that as a transient failure requesting another
// prime, not an error.
func Reconstruct(a, modulus *big.Int, method Method) (r Rational, ok bool) {
	switch method {
	case MQRR:
		return reconstructMQRR(a, modulus)
	default:
		return reconstructWang(a, modulus)
	}
}

// reconstructWang implements the standard extended-Euclidean rational
// reconstruction (Wang 1981): run the EEA on (modulus, a) and stop the
// first time the remainder drops below sqrt(modulus/2); the last two
// remainder/cofactor pairs, if coprime, give (n, d).
func reconstructWang(a, modulus *big.Int) (Rational, bool) {
	return wangEEA(a, modulus, wangBound(modulus))
}

// wangEEA performs the extended Euclidean algorithm cleanly (no argument
// aliasing) and returns the first (r_i, t_i) pair with |r_i| <= bound.
func wangEEA(a, modulus, bound *big.Int) (Rational, bool) {
	r0 := new(big.Int).Set(modulus)
	r1 := new(big.Int).Mod(a, modulus)
	t0 := big.NewInt(0)
	t1 := big.NewInt(1)

	if r1.CmpAbs(bound) <= 0 {
		return finishWang(r1, t1, modulus, bound)
	}

	for {
		q := new(big.Int).Quo(r0, r1)
		r2 := new(big.Int).Sub(r0, new(big.Int).Mul(q, r1))
		t2 := new(big.Int).Sub(t0, new(big.Int).Mul(q, t1))

		r0, r1 = r1, r2
		t0, t1 = t1, t2

		if r1.Sign() == 0 {
			return Rational{}, false
		}
		if r1.CmpAbs(bound) <= 0 {
			return finishWang(r1, t1, modulus, bound)
		}
	}
}

func finishWang(n, d, modulus, bound *big.Int) (Rational, bool) {
	if d.Sign() == 0 {
		return Rational{}, false
	}
	if new(big.Int).Abs(d).Cmp(bound) > 0 {
		return Rational{}, false
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), new(big.Int).Abs(d))
	if g.Cmp(big.NewInt(1)) != 0 {
		return Rational{}, false
	}
	_ = modulus
	return NewRational(n, d), true
}

// wangBound returns floor(sqrt(modulus/2)), the classical Wang size bound.
func wangBound(modulus *big.Int) *big.Int {
	half := new(big.Int).Rsh(modulus, 1)
	return new(big.Int).Sqrt(half)
}

// reconstructMQRR implements Monagan's Maximal Quotient Rational
// Reconstruction: it runs the same EEA but tracks the pair with the
// largest quotient seen so far, accepting it once the remainder drops
// below a threshold T; T is set so that under one percent of results are
// expected to be false positives, following the original paper.
func reconstructMQRR(u, p *big.Int) (Rational, bool) {
	bitLen := int64(p.BitLen())
	T := new(big.Int).Mul(big.NewInt(1024), big.NewInt(bitLen))

	if u.Sign() == 0 {
		if p.Cmp(T) > 0 {
			return RationalFromInt64(0), true
		}
		return Rational{}, false
	}

	n := big.NewInt(0)
	d := big.NewInt(0)
	t0 := big.NewInt(0)
	r0 := new(big.Int).Set(p)
	t1 := big.NewInt(1)
	r1 := new(big.Int).Mod(u, p)

	for r1.Sign() != 0 && r0.Cmp(T) > 0 {
		q := new(big.Int).Quo(r0, r1)

		if q.Cmp(T) > 0 {
			n.Set(r1)
			d.Set(t1)
			T.Set(q)
		}

		r2 := new(big.Int).Sub(r0, new(big.Int).Mul(q, r1))
		t2 := new(big.Int).Sub(t0, new(big.Int).Mul(q, t1))
		r0, r1 = r1, r2
		t0, t1 = t1, t2
	}

	if d.Sign() == 0 {
		return Rational{}, false
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(n), new(big.Int).Abs(d))
	if g.Cmp(big.NewInt(1)) != 0 {
		return Rational{}, false
	}
	return NewRational(n, d), true
}
