package ratreconst

import (
	"testing"

	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/poly"
)

// driveToResult runs r against eval (a black box over the field currently
// installed via AdvancePrime) until it either reaches Done or exhausts
// primes, feeding one probe at a time the way Reconstructor's dispatch
// loop does, and re-arming with the next prime in primes whenever a
// normalization or rational-reconstruction attempt asks for one.
func driveToResult(t *testing.T, r *RatReconst, primes []uint64, eval func(f field.Field, x field.Elem) field.Elem) {
	t.Helper()

	primeIdx := 0
	f := field.New(primes[primeIdx])
	r.AdvancePrime(f, nil, []field.Elem{field.Zero(f)})

	var nextT uint64 = 1
	for iter := 0; ; iter++ {
		if iter > 10000 {
			t.Fatalf("did not converge within %d iterations (phase=%s)", iter, r.Phase())
		}
		if r.IsDone() {
			return
		}
		if r.NeedsNewPrime() {
			primeIdx++
			if primeIdx >= len(primes) {
				t.Fatalf("exhausted test prime list before converging")
			}
			f = field.New(primes[primeIdx])
			r.AdvancePrime(f, nil, []field.Elem{field.Zero(f)})
			continue
		}
		if r.Phase() == PhaseRationalTest {
			tv := field.FromUint64(f, nextT)
			nextT++
			zi := poly.ExponentTuple{}
			pt := r.Point(tv, zi)
			val := eval(f, pt[0])
			if err := r.TestGuess(pt, val); err != nil {
				t.Fatalf("TestGuess: %v", err)
			}
			continue
		}

		reqs := r.GetZiOrders()
		if len(reqs) == 0 {
			t.Fatalf("no zi orders requested while phase=%s and not awaiting a new prime", r.Phase())
		}
		zi := reqs[0].Order
		tv := field.FromUint64(f, nextT)
		nextT++
		pt := r.Point(tv, zi)
		val := eval(f, pt[0])
		if err := r.Feed(tv, val, zi, r.PrimeCounter()); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if err := r.Interpolate(); err != nil {
			t.Fatalf("Interpolate: %v", err)
		}
	}
}

// TestUnivariateRationalReconstruction exercises f(x) = 2/(2+7x+30x^2): a
// non-trivial Uni-Thiele degree pair (0 over 2), one scan line, a single
// prime's worth of CRT folding, and a successful agreement test.
func TestUnivariateRationalReconstruction(t *testing.T) {
	eval := func(f field.Field, x field.Elem) field.Elem {
		two := field.FromUint64(f, 2)
		seven := field.FromUint64(f, 7)
		thirty := field.FromUint64(f, 30)
		den := two.Add(seven.Mul(x)).Add(thirty.Mul(x).Mul(x))
		return two.Mul(den.Inv())
	}

	r := New("f1", 1)
	driveToResult(t, r, []uint64{field.Primes[0], field.Primes[1], field.Primes[2]}, eval)

	if !r.IsDone() {
		t.Fatalf("expected RatReconst to converge")
	}
	num, den, ok := r.GetResult()
	if !ok {
		t.Fatalf("expected a result once Done")
	}
	if got := num.Len(); got != 1 {
		t.Errorf("numerator term count = %d, want 1", got)
	}
	if got := den.Len(); got != 3 {
		t.Errorf("denominator term count = %d, want 3", got)
	}

	zero := poly.ExponentTuple{0}
	one := poly.ExponentTuple{1}
	twoExp := poly.ExponentTuple{2}
	// Normalization divides by D's constant term 2: f = 1/(1 + 7/2 x + 15 x^2).
	if c := num.Get(zero); c.String() != "1" {
		t.Errorf("numerator constant term = %v, want 1", c)
	}
	if c := den.Get(zero); c.String() != "1" {
		t.Errorf("denominator constant term = %v, want 1", c)
	}
	if c := den.Get(one); c.String() != "7/2" {
		t.Errorf("denominator x term = %v, want 7/2", c)
	}
	if c := den.Get(twoExp); c.String() != "15" {
		t.Errorf("denominator x^2 term = %v, want 15", c)
	}
}

// TestTrivialConstantFunction exercises the degenerate case f = 3: both
// numerator and denominator degree 0, the smallest possible Uni-Thiele run.
func TestTrivialConstantFunction(t *testing.T) {
	eval := func(f field.Field, _ field.Elem) field.Elem {
		return field.FromUint64(f, 3)
	}

	r := New("constant", 1)
	driveToResult(t, r, []uint64{field.Primes[0], field.Primes[1]}, eval)

	if !r.IsDone() {
		t.Fatalf("expected RatReconst to converge")
	}
	num, den, ok := r.GetResult()
	if !ok {
		t.Fatalf("expected a result once Done")
	}
	zero := poly.ExponentTuple{0}
	if nc := num.Get(zero); nc.String() != "3" {
		t.Errorf("numerator constant = %v, want 3", nc)
	}
	if dc := den.Get(zero); dc.String() != "1" {
		t.Errorf("denominator constant = %v, want 1", dc)
	}
}
