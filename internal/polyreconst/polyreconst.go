// Package polyreconst implements PolyReconst: reconstruction of a
// sparse multivariate polynomial over 𝔽ₚ of bounded total degree from
// black-box probes, using a Newton/Zippel-style layered-degree approach.
// RatReconst drives one instance per numerator/denominator degree
// discovered during its Uni-Thiele phase.
package polyreconst

import (
	"fmt"
	"sort"

	"github.com/agbru/firefly/internal/densesolve"
	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/poly"
)

// MaxAnchorRetries bounds how many times a caller should re-instantiate a
// PolyReconst with fresh anchor points after an inconsistent system before
// giving up (DESIGN.md Open Question decision).
const MaxAnchorRetries = 4

// ErrInconsistentSystem is returned by SolveAll when the linear system for
// a degree layer is singular, meaning the anchor points were unlucky.
// The caller (RatReconst) should draw MaxAnchorRetries-many fresh anchor
// sets and retry before treating the reconstruction as fatally broken.
type ErrInconsistentSystem struct {
	Degree int
}

func (e ErrInconsistentSystem) Error() string {
	return fmt.Sprintf("polyreconst: inconsistent system at degree %d", e.Degree)
}

// PolyReconst reconstructs P(z_1,...,z_arity), a polynomial of bounded
// total degree over 𝔽ₚ, from evaluations along scaled anchor lines
// P(s*a) for a fixed anchor vector a and a scanned scalar s. Because
// P(s*a) = Σ_d s^d · H_d(a), where H_d is the degree-d homogeneous part of
// P, a single per-anchor Vandermonde solve recovers every degree's
// contribution at that anchor at once; degree layers are then solved
// independently. "Iterate degree d from max down, solve a transposed
// Vandermonde system, subtract the layer" is realized here via this
// s-power separation instead of literal residual subtraction, which is
// unnecessary once the homogeneous decomposition is available.
type PolyReconst struct {
	arity  int
	maxDeg int
	f      field.Field

	monomialsByDegree [][]poly.ExponentTuple // index 0..maxDeg
	anchors           [][]field.Elem         // len == monomial count at maxDeg
	sPoints           []field.Elem           // maxDeg+1 distinct scan points

	raw       []map[uint64]field.Elem // per anchor: s.Uint64() -> P(s*anchor)
	hByAnchor [][]field.Elem          // per anchor: H_0(a)..H_maxDeg(a), nil until filled
}

// NumAnchors returns the number of independent anchor vectors New
// requires: the monomial count of the largest (maxDeg) homogeneous layer,
// since every lower layer reuses a prefix of the same anchors.
func NumAnchors(arity, maxDeg int) int {
	return len(enumerateMonomials(arity, maxDeg))
}

// New builds a PolyReconst for a polynomial in `arity` variables with
// total degree at most maxDeg, driven by the given anchor vectors (each of
// length arity; count must equal NumAnchors(arity, maxDeg)).
func New(arity, maxDeg int, f field.Field, anchors [][]field.Elem) (*PolyReconst, error) {
	if maxDeg < 0 {
		panic("polyreconst: negative maxDeg")
	}
	need := NumAnchors(arity, maxDeg)
	if len(anchors) != need {
		return nil, fmt.Errorf("polyreconst: need %d anchors, got %d", need, len(anchors))
	}
	for _, a := range anchors {
		if len(a) != arity {
			return nil, fmt.Errorf("polyreconst: anchor has arity %d, want %d", len(a), arity)
		}
	}

	byDeg := make([][]poly.ExponentTuple, maxDeg+1)
	for d := 0; d <= maxDeg; d++ {
		byDeg[d] = enumerateMonomials(arity, d)
	}

	sPoints := make([]field.Elem, maxDeg+1)
	for i := 0; i <= maxDeg; i++ {
		sPoints[i] = field.FromUint64(f, uint64(i+1))
	}

	raw := make([]map[uint64]field.Elem, need)
	for i := range raw {
		raw[i] = make(map[uint64]field.Elem)
	}

	return &PolyReconst{
		arity:             arity,
		maxDeg:            maxDeg,
		f:                 f,
		monomialsByDegree: byDeg,
		anchors:           anchors,
		sPoints:           sPoints,
		raw:               raw,
		hByAnchor:         make([][]field.Elem, need),
	}, nil
}

// SPoints returns the fixed scan points a caller must evaluate the black
// box at (scaled by each anchor) to feed this instance: for anchor i, the
// caller should supply Feed(i, SPoints()[k], value) for every k.
func (pr *PolyReconst) SPoints() []field.Elem { return pr.sPoints }

// Anchors returns the anchor vectors this instance was built with.
func (pr *PolyReconst) Anchors() [][]field.Elem { return pr.anchors }

// Feed records one sample P(s*anchors[anchorIdx]) = value. Once all
// maxDeg+1 scan points for that anchor have been fed, its homogeneous
// decomposition is computed immediately.
func (pr *PolyReconst) Feed(anchorIdx int, s, value field.Elem) error {
	if anchorIdx < 0 || anchorIdx >= len(pr.anchors) {
		panic("polyreconst: anchor index out of range")
	}
	pr.raw[anchorIdx][s.Uint64()] = value
	if len(pr.raw[anchorIdx]) < len(pr.sPoints) || pr.hByAnchor[anchorIdx] != nil {
		return nil
	}

	values := make([]field.Elem, len(pr.sPoints))
	for i, sp := range pr.sPoints {
		v, ok := pr.raw[anchorIdx][sp.Uint64()]
		if !ok {
			return nil // shouldn't happen given the length check above
		}
		values[i] = v
	}
	h, err := densesolve.TransposedVandermonde(pr.sPoints, values, pr.f)
	if err != nil {
		return fmt.Errorf("polyreconst: anchor %d homogeneous decomposition: %w", anchorIdx, err)
	}
	pr.hByAnchor[anchorIdx] = h
	return nil
}

// FeedHomogeneous records anchor i's full homogeneous decomposition
// H_0(a)..H_maxDeg(a) directly, bypassing the per-anchor Vandermonde solve
// that Feed performs. RatReconst uses this: a Thiele run along the line
// t*anchor already yields the coefficients of t^d in flattened
// low-degree-first order, which are exactly H_d(anchor) when the line
// passes through the origin, so there is no raw (s, value) data left to
// decompose.
func (pr *PolyReconst) FeedHomogeneous(anchorIdx int, h []field.Elem) error {
	if anchorIdx < 0 || anchorIdx >= len(pr.anchors) {
		panic("polyreconst: anchor index out of range")
	}
	if len(h) != len(pr.sPoints) {
		return fmt.Errorf("polyreconst: anchor %d homogeneous vector has length %d, want %d", anchorIdx, len(h), len(pr.sPoints))
	}
	pr.hByAnchor[anchorIdx] = h
	return nil
}

// GetNumEqn returns how many more (anchor, s) samples are still needed
// before every anchor required by the largest unsolved layer has a
// completed homogeneous decomposition.
func (pr *PolyReconst) GetNumEqn() int {
	needed := 0
	for i := range pr.anchors {
		if pr.hByAnchor[i] != nil {
			continue
		}
		needed += len(pr.sPoints) - len(pr.raw[i])
	}
	return needed
}

// Ready reports whether every anchor has a completed homogeneous
// decomposition, i.e. SolveAll can be called.
func (pr *PolyReconst) Ready() bool {
	for _, h := range pr.hByAnchor {
		if h == nil {
			return false
		}
	}
	return true
}

// SolveAll reconstructs every degree layer, from maxDeg down to 0, and
// returns the assembled polynomial. It returns ErrInconsistentSystem if a
// layer's linear system is singular; the caller should build a fresh
// PolyReconst with new anchors, provided it has not exceeded
// MaxAnchorRetries attempts.
func (pr *PolyReconst) SolveAll() (*poly.PolynomialFF, error) {
	if !pr.Ready() {
		return nil, fmt.Errorf("polyreconst: SolveAll called before all anchors are ready")
	}

	result := poly.NewPolynomialFF(pr.arity)
	for d := pr.maxDeg; d >= 0; d-- {
		monomials := pr.monomialsByDegree[d]
		n := len(monomials)
		if n == 0 {
			continue
		}

		m := densesolve.NewMatrix(n, n+1, pr.f)
		for i := 0; i < n; i++ {
			for j, mono := range monomials {
				m.Data[i][j] = evalMonomial(pr.f, pr.anchors[i], mono)
			}
			m.Data[i][n] = pr.hByAnchor[i][d]
		}

		coeffs, err := densesolve.GaussJordan(m, pr.f)
		if err != nil {
			return nil, ErrInconsistentSystem{Degree: d}
		}
		for j, mono := range monomials {
			result.Set(mono, coeffs[j])
		}
	}

	return result, nil
}

// evalMonomial computes prod_i point[i]^exp[i].
func evalMonomial(f field.Field, point []field.Elem, exp poly.ExponentTuple) field.Elem {
	acc := field.One(f)
	for i, e := range exp {
		acc = acc.Mul(point[i].Pow(int64(e)))
	}
	return acc
}

// enumerateMonomials lists every exponent tuple of length arity summing to
// exactly degree, in canonical colex order.
func enumerateMonomials(arity, degree int) []poly.ExponentTuple {
	if arity == 0 {
		if degree == 0 {
			return []poly.ExponentTuple{{}}
		}
		return nil
	}
	if arity == 1 {
		return []poly.ExponentTuple{{uint32(degree)}}
	}

	var out []poly.ExponentTuple
	for first := degree; first >= 0; first-- {
		for _, rest := range enumerateMonomials(arity-1, degree-first) {
			tup := make(poly.ExponentTuple, 0, arity)
			tup = append(tup, uint32(first))
			tup = append(tup, rest...)
			out = append(out, tup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return poly.LessColex(out[i], out[j]) })
	return out
}
