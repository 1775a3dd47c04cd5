package field

import "testing"

func TestArithmeticRoundTrip(t *testing.T) {
	t.Parallel()
	f := New(Primes[0])
	a := FromInt64(f, -17)
	b := FromUint64(f, 42)

	if got := a.Add(b).Sub(b); !got.Equal(a) {
		t.Errorf("Add-then-Sub not identity: got %v want %v", got, a)
	}
	if got := a.Mul(b).Mul(b.Inv()); !got.Equal(a) {
		t.Errorf("Mul-then-Inv not identity: got %v want %v", got, a)
	}
	if got := a.Neg().Neg(); !got.Equal(a) {
		t.Errorf("double negation failed: got %v want %v", got, a)
	}
}

func TestPowMatchesRepeatedMul(t *testing.T) {
	t.Parallel()
	f := New(Primes[0])
	a := FromUint64(f, 12345)
	want := One(f)
	for i := 0; i < 9; i++ {
		want = want.Mul(a)
	}
	if got := a.Pow(9); !got.Equal(want) {
		t.Errorf("Pow(9) = %v, want %v", got, want)
	}
}

func TestPowNegative(t *testing.T) {
	t.Parallel()
	f := New(Primes[0])
	a := FromUint64(f, 7)
	if got := a.Pow(-1); !got.Equal(a.Inv()) {
		t.Errorf("Pow(-1) = %v, want %v", got, a.Inv())
	}
}

func TestInvZeroPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic inverting zero")
		}
	}()
	f := New(Primes[0])
	Zero(f).Inv()
}

func TestPrimesTableProperties(t *testing.T) {
	t.Parallel()
	if len(Primes) != 300 {
		t.Fatalf("expected 300 primes, got %d", len(Primes))
	}
	for i, p := range Primes {
		if p%2 == 0 {
			t.Fatalf("prime %d at index %d is even", p, i)
		}
		if p>>63 != 0 {
			t.Fatalf("prime %d at index %d does not fit 63 bits", p, i)
		}
		if i > 0 && p >= Primes[i-1] {
			t.Fatalf("primes not strictly decreasing at index %d", i)
		}
	}
}

func TestMulOverflowSafe(t *testing.T) {
	t.Parallel()
	f := New(Primes[0])
	big := FromUint64(f, f.Prime()-1)
	got := big.Mul(big)
	if got.Uint64() >= f.Prime() {
		t.Errorf("Mul result %d not reduced mod %d", got.Uint64(), f.Prime())
	}
}
