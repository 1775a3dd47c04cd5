package thiele

import (
	"testing"

	"github.com/agbru/firefly/internal/field"
)

// evalTarget computes f(x) = 2 / (2 + 7x + 30x^2) over field f.
func evalTarget(f field.Field, x field.Elem) field.Elem {
	two := field.FromUint64(f, 2)
	seven := field.FromUint64(f, 7)
	thirty := field.FromUint64(f, 30)
	den := two.Add(seven.Mul(x)).Add(thirty.Mul(x).Mul(x))
	return two.Mul(den.Inv())
}

func evalPoly(f field.Field, coeffs []field.Elem, x field.Elem) field.Elem {
	acc := field.Zero(f)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(coeffs[i])
	}
	return acc
}

func TestThieleConvergesOnKnownRational(t *testing.T) {
	t.Parallel()
	f := field.New(field.Primes[0])
	in := New(f)

	converged := false
	var num, den []field.Elem
	for i := uint64(1); i <= 12; i++ {
		x := field.FromUint64(f, i)
		y := evalTarget(f, x)
		switch in.AddPoint(x, y) {
		case Converged:
			converged = true
			num, den = in.Coefficients()
		case NeedFreshT:
			t.Fatalf("unexpected duplicate t at i=%d", i)
		}
		if converged {
			break
		}
	}
	if !converged {
		t.Fatal("Thiele interpolation did not converge within 12 samples for a degree-(0,2) rational")
	}

	// Check agreement at a fresh point, since the raw flattened
	// coefficients carry an arbitrary common scale (canonicalize only
	// fixes the denominator's leading coefficient to 1, leaving the
	// later constant-term normalization to RatReconst).
	fresh := field.FromUint64(f, 999)
	want := evalTarget(f, fresh)
	got := evalPoly(f, num, fresh).Mul(evalPoly(f, den, fresh).Inv())
	if !got.Equal(want) {
		t.Errorf("reconstructed rational disagrees at fresh point: got %v want %v", got, want)
	}
}

func TestThieleRejectsDuplicateT(t *testing.T) {
	t.Parallel()
	f := field.New(field.Primes[0])
	in := New(f)
	x := field.FromUint64(f, 5)
	in.AddPoint(x, evalTarget(f, x))
	if got := in.AddPoint(x, evalTarget(f, x)); got != NeedFreshT {
		t.Errorf("AddPoint with duplicate t = %v, want NeedFreshT", got)
	}
}

func TestThieleConstantFunction(t *testing.T) {
	t.Parallel()
	f := field.New(field.Primes[0])
	in := New(f)
	c := field.FromUint64(f, 3)

	var converged bool
	for i := uint64(1); i <= 4 && !converged; i++ {
		x := field.FromUint64(f, i)
		if in.AddPoint(x, c) == Converged {
			converged = true
		}
	}
	if !converged {
		t.Fatal("constant function should converge quickly")
	}
	num, den := in.Coefficients()
	fresh := field.FromUint64(f, 777)
	got := evalPoly(f, num, fresh).Mul(evalPoly(f, den, fresh).Inv())
	if !got.Equal(c) {
		t.Errorf("constant reconstruction = %v, want %v", got, c)
	}
}
