package bigrat

import "math/big"

// Combined tracks a residue being lifted across successive coprime moduli
// via CRT: Value is the unique integer in [0, Modulus) congruent to every
// residue folded in so far.
type Combined struct {
	Value   *big.Int
	Modulus *big.Int
}

// NewCombined seeds a Combined from the first prime's residue.
func NewCombined(residue uint64, modulus uint64) Combined {
	return Combined{
		Value:   new(big.Int).SetUint64(residue),
		Modulus: new(big.Int).SetUint64(modulus),
	}
}

// Fold combines the next prime's residue into c using the standard
// two-modulus CRT formula:
//
//	a = a1 + m1 * ((a2 - a1) * m1^-1 mod m2)
//
// and returns the updated Combined with Modulus = m1*m2. m2 must be
// coprime to c.Modulus (true for our table of distinct word primes).
func (c Combined) Fold(residue uint64, modulus uint64) Combined {
	m1 := c.Modulus
	m2 := new(big.Int).SetUint64(modulus)
	a1 := c.Value
	a2 := new(big.Int).SetUint64(residue)

	m1InvModM2 := new(big.Int).ModInverse(m1, m2)
	if m1InvModM2 == nil {
		panic("bigrat: CRT moduli not coprime")
	}

	diff := new(big.Int).Sub(a2, a1)
	diff.Mod(diff, m2)
	k := new(big.Int).Mul(diff, m1InvModM2)
	k.Mod(k, m2)

	newValue := new(big.Int).Add(a1, Mul(m1, k))
	newModulus := Mul(m1, m2)
	newValue.Mod(newValue, newModulus)

	return Combined{Value: newValue, Modulus: newModulus}
}

// ResidueMod returns c.Value mod p, i.e. the coefficient that prime p's
// per-field solve should reproduce (used to check invariant R1 in tests).
func (c Combined) ResidueMod(p uint64) uint64 {
	m := new(big.Int).SetUint64(p)
	r := new(big.Int).Mod(c.Value, m)
	return r.Uint64()
}

// Signed reinterprets Value as a balanced representative in
// (-Modulus/2, Modulus/2], which is the representation rational
// reconstruction expects (a coefficient's true value may be negative).
func (c Combined) Signed() *big.Int {
	half := new(big.Int).Rsh(c.Modulus, 1)
	if c.Value.Cmp(half) > 0 {
		return new(big.Int).Sub(c.Value, c.Modulus)
	}
	return new(big.Int).Set(c.Value)
}
