// Package thiele implements univariate rational interpolation via the
// classical reciprocal-difference (Thiele continued-fraction) recursion.
// It is the engine RatReconst drives during its Uni-Thiele phase to
// discover the numerator/denominator degree bounds before the
// multivariate phase begins.
package thiele

import "github.com/agbru/firefly/internal/field"

// Outcome is the result of adding one sample point, replacing an
// exception-based "division by zero" signal with an explicit return
// value.
type Outcome int

const (
	// NeedMore means the interpolator has not yet converged; the caller
	// should supply another (distinct) sample point.
	NeedMore Outcome = iota
	// Converged means the continued fraction built from the samples so
	// far already predicts a freshly supplied point exactly, i.e. two
	// successive extension attempts yield identical canonical forms.
	Converged
	// NeedFreshT signals that the supplied t coincided with a previously
	// used sample point (which would divide by zero in the reciprocal
	// difference recursion); the caller must retry with a distinct t.
	NeedFreshT
)

// Interpolator holds the growing sample/coefficient tables of the
// Thiele continued fraction f(t0),...,f(tk) -> a0,...,ak. Its internal
// state machine is monotone: points are only ever appended, never
// rewound.
type Interpolator struct {
	f field.Field

	ti []field.Elem
	ai []field.Elem

	// lastColumn holds the previous reciprocal-difference column,
	// enabling each new point to be folded in in O(len) field operations
	// instead of recomputing the whole triangular tableau.
	lastColumn []field.Elem

	canonNum, canonDen []field.Elem
}

// New returns an empty interpolator over field f.
func New(f field.Field) *Interpolator {
	return &Interpolator{f: f}
}

// NumPoints returns how many (t, f(t)) samples have been folded into the
// tableau (not counting a final point that only triggered Converged).
func (in *Interpolator) NumPoints() int { return len(in.ti) }

// AddPoint feeds one more sample (t, y=f(t)). If the continued fraction
// built from the samples seen so far already predicts y at t exactly, the
// point is not added to the tableau and Converged is returned — this is
// the reciprocal-difference analogue of "the next column would be an
// infinite reciprocal difference", handled without ever dividing by zero.
// Otherwise the tableau is extended by one column and NeedMore is
// returned.
func (in *Interpolator) AddPoint(t, y field.Elem) Outcome {
	for _, existing := range in.ti {
		if existing.Equal(t) {
			return NeedFreshT
		}
	}

	if n := len(in.ai); n > 0 {
		predicted, ok := in.evalContinuedFraction(t)
		if ok && predicted.Equal(y) {
			return Converged
		}
	}

	in.extend(t, y)
	in.canonNum, in.canonDen = in.flatten()
	return NeedMore
}

// evalContinuedFraction evaluates the current continued fraction
// a0 + (x-t0)/(a1 + (x-t1)/(...)) at x using the existing ai/ti tables,
// via the backward recurrence. ok is false if evaluation would divide by
// zero (i.e. the current interpolant genuinely has a pole at x).
func (in *Interpolator) evalContinuedFraction(x field.Elem) (value field.Elem, ok bool) {
	n := len(in.ai)
	value = in.ai[n-1]
	for k := n - 2; k >= 0; k-- {
		if value.IsZero() {
			return field.Elem{}, false
		}
		value = in.ai[k].Add(x.Sub(in.ti[k]).Mul(value.Inv()))
	}
	return value, true
}

// extend folds one more (t, y) sample into the reciprocal-difference
// tableau, appending the next continued-fraction coefficient to ai.
func (in *Interpolator) extend(t, y field.Elem) {
	n := len(in.ti)
	column := make([]field.Elem, n+1)
	column[0] = y
	for k := 1; k <= n; k++ {
		diff := column[k-1].Sub(in.lastColumn[k-1])
		term := t.Sub(in.ti[n-k]).Mul(diff.Inv())
		if k >= 2 {
			term = term.Add(in.lastColumn[k-2])
		}
		column[k] = term
	}

	// The continued-fraction coefficient is the inverse difference
	// rho_n(t0..tn) - rho_{n-2}(t0..t_{n-2}), and rho_{n-2} equals
	// a_{n-2} + a_{n-4} + ... over the coefficients already stored.
	a := column[n]
	for j := n - 2; j >= 0; j -= 2 {
		a = a.Sub(in.ai[j])
	}
	in.ti = append(in.ti, t)
	in.ai = append(in.ai, a)
	in.lastColumn = column
}

// Coefficients returns the current canonical (numerator, denominator)
// polynomial coefficient slices, low-degree-first, as flattened from the
// continued fraction so far.
func (in *Interpolator) Coefficients() (num, den []field.Elem) {
	return in.canonNum, in.canonDen
}

// flatten converts the continued fraction into a canonical
// (numerator, denominator) pair of ordinary polynomials via the standard
// convergent recurrence
//
//	p_k = a_k*p_{k-1} + (x - t_{k-1})*p_{k-2}
//	q_k = a_k*q_{k-1} + (x - t_{k-1})*q_{k-2}
//
// run from the last coefficient back to the first, then normalizes the
// denominator's leading coefficient to 1.
func (in *Interpolator) flatten() (num, den []field.Elem) {
	n := len(in.ai)
	if n == 0 {
		return nil, nil
	}
	p := []field.Elem{in.ai[n-1]}
	q := []field.Elem{field.One(in.f)}

	for i := n - 2; i >= 0; i-- {
		xMinusTi := []field.Elem{in.ti[i].Neg(), field.One(in.f)}
		newP := polyAdd(polyScale(p, in.ai[i]), polyMul(xMinusTi, q))
		newQ := p
		p, q = newP, newQ
	}

	return canonicalize(p, q)
}

func canonicalize(num, den []field.Elem) ([]field.Elem, []field.Elem) {
	num = trim(num)
	den = trim(den)
	if len(den) == 0 {
		return num, den
	}
	lead := den[len(den)-1]
	if lead.IsZero() || lead.Equal(field.One(lead.Field())) {
		return num, den
	}
	inv := lead.Inv()
	return polyScale(num, inv), polyScale(den, inv)
}

func trim(p []field.Elem) []field.Elem {
	n := len(p)
	for n > 0 && p[n-1].IsZero() {
		n--
	}
	return p[:n]
}

func polyAdd(a, b []field.Elem) []field.Elem {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return nil
	}
	f := pickField(a, b)
	out := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		out[i] = field.Zero(f)
		if i < len(a) {
			out[i] = out[i].Add(a[i])
		}
		if i < len(b) {
			out[i] = out[i].Add(b[i])
		}
	}
	return out
}

func polyScale(a []field.Elem, c field.Elem) []field.Elem {
	out := make([]field.Elem, len(a))
	for i, v := range a {
		out[i] = v.Mul(c)
	}
	return out
}

func polyMul(a, b []field.Elem) []field.Elem {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	f := pickField(a, b)
	out := make([]field.Elem, len(a)+len(b)-1)
	for i := range out {
		out[i] = field.Zero(f)
	}
	for i, av := range a {
		if av.IsZero() {
			continue
		}
		for j, bv := range b {
			out[i+j] = out[i+j].Add(av.Mul(bv))
		}
	}
	return out
}

func pickField(a, b []field.Elem) field.Field {
	if len(a) > 0 {
		return a[0].Field()
	}
	return b[0].Field()
}
