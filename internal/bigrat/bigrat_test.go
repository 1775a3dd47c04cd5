package bigrat

import (
	"math/big"
	"testing"
)

func TestRationalReduces(t *testing.T) {
	t.Parallel()
	r := NewRational(big.NewInt(6), big.NewInt(-8))
	if r.Num.Cmp(big.NewInt(-3)) != 0 || r.Den.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("got %s, want -3/4", r)
	}
}

func TestRationalArithmetic(t *testing.T) {
	t.Parallel()
	a := NewRational(big.NewInt(1), big.NewInt(2))
	b := NewRational(big.NewInt(1), big.NewInt(3))
	if got := a.Add(b); !got.Equal(NewRational(big.NewInt(5), big.NewInt(6))) {
		t.Errorf("1/2+1/3 = %s, want 5/6", got)
	}
	if got := a.Mul(b); !got.Equal(NewRational(big.NewInt(1), big.NewInt(6))) {
		t.Errorf("1/2*1/3 = %s, want 1/6", got)
	}
	if got := a.Div(b); !got.Equal(NewRational(big.NewInt(3), big.NewInt(2))) {
		t.Errorf("1/2 / 1/3 = %s, want 3/2", got)
	}
}

func TestCRTRoundTrip(t *testing.T) {
	t.Parallel()
	// Reconstruct the integer 123456789 from its residues mod two coprime
	// word primes.
	target := big.NewInt(123456789)
	p1 := uint64(1000000007)
	p2 := uint64(998244353)

	r1 := new(big.Int).Mod(target, big.NewInt(0).SetUint64(p1)).Uint64()
	r2 := new(big.Int).Mod(target, big.NewInt(0).SetUint64(p2)).Uint64()

	c := NewCombined(r1, p1).Fold(r2, p2)
	if c.Value.Cmp(target) != 0 {
		t.Fatalf("CRT combine = %s, want %s", c.Value, target)
	}
	if got := c.ResidueMod(p1); got != r1 {
		t.Errorf("ResidueMod(p1) = %d, want %d (invariant R1)", got, r1)
	}
	if got := c.ResidueMod(p2); got != r2 {
		t.Errorf("ResidueMod(p2) = %d, want %d (invariant R1)", got, r2)
	}
}

func TestCRTNegativeViaSigned(t *testing.T) {
	t.Parallel()
	target := big.NewInt(-42)
	p1 := uint64(1000000007)
	p2 := uint64(998244353)

	mod := func(v *big.Int, p uint64) uint64 {
		m := new(big.Int).SetUint64(p)
		return new(big.Int).Mod(v, m).Uint64()
	}

	c := NewCombined(mod(target, p1), p1).Fold(mod(target, p2), p2)
	if c.Signed().Cmp(target) != 0 {
		t.Fatalf("Signed() = %s, want %s", c.Signed(), target)
	}
}

func TestReconstructWangKnownFraction(t *testing.T) {
	t.Parallel()
	p := big.NewInt(1000003)
	frac := NewRational(big.NewInt(7), big.NewInt(11))
	denInv := new(big.Int).ModInverse(frac.Den, p)
	a := new(big.Int).Mod(new(big.Int).Mul(frac.Num, denInv), p)

	got, ok := Reconstruct(a, p, Wang)
	if !ok {
		t.Fatal("Wang reconstruction failed to find a solution")
	}
	if !got.Equal(frac) {
		t.Fatalf("Wang reconstructed %s, want %s", got, frac)
	}
}

func TestReconstructMQRRKnownFraction(t *testing.T) {
	t.Parallel()
	p := big.NewInt(1000003)
	frac := NewRational(big.NewInt(3), big.NewInt(5))
	denInv := new(big.Int).ModInverse(frac.Den, p)
	a := new(big.Int).Mod(new(big.Int).Mul(frac.Num, denInv), p)

	got, ok := Reconstruct(a, p, MQRR)
	if !ok {
		t.Fatal("MQRR reconstruction failed to find a solution")
	}
	if !got.Equal(frac) {
		t.Fatalf("MQRR reconstructed %s, want %s", got, frac)
	}
}

func TestReconstructFailsOnUnderdeterminedModulus(t *testing.T) {
	t.Parallel()
	// The prime 101 gives a Wang bound of floor(sqrt(50)) = 7, and no
	// fraction n/d with |n|, d <= 7 is congruent to 37 mod 101 (the EEA
	// stops at 7/-8, whose denominator exceeds the bound); reconstruction
	// should decline rather than produce a wrong answer.
	p := big.NewInt(101)
	a := big.NewInt(37)
	if got, ok := Reconstruct(a, p, Wang); ok {
		t.Fatalf("Wang reconstructed %s from 37 mod 101, want failure", got)
	}
}

func TestMulMatchesStdlib(t *testing.T) {
	t.Parallel()
	a := big.NewInt(123456789012345)
	b := big.NewInt(987654321098765)
	want := new(big.Int).Mul(a, b)
	if got := Mul(a, b); got.Cmp(want) != 0 {
		t.Errorf("Mul(a,b) = %s, want %s", got, want)
	}
}
