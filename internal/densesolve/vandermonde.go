package densesolve

import "github.com/agbru/firefly/internal/field"

// TransposedVandermonde takes m sample points v[0..m) and values s[0..m)
// and recovers coefficients c such that for every j:
//
//	sum_i c[i] * v[j]^i == s[j]
//
// It builds the "master polynomial" M(z) = product_j (z - v[j])
// incrementally, then performs one synthetic division per sample point.
// Points must be pairwise distinct; ErrSingular is returned otherwise (a
// repeated point makes the Vandermonde matrix singular).
func TransposedVandermonde(points []field.Elem, values []field.Elem, f field.Field) ([]field.Elem, error) {
	m := len(points)
	if len(values) != m {
		panic("densesolve: points/values length mismatch")
	}
	if m == 0 {
		return nil, nil
	}
	if hasDuplicate(points) {
		return nil, ErrSingular{}
	}

	master := masterPolynomial(points, f) // length m+1, master[m] == 1

	coeffs := make([]field.Elem, m)
	for i := range coeffs {
		coeffs[i] = field.Zero(f)
	}

	for j := 0; j < m; j++ {
		// Divide master(z) by (z - points[j]) via synthetic division to
		// get the degree-(m-1) polynomial that vanishes at every point
		// except points[j], then normalize so it equals 1 there and
		// accumulate values[j] times it (Lagrange basis via synthetic
		// division, avoiding an O(m^2) direct Lagrange re-derivation per
		// point).
		quotient := syntheticDivide(master, points[j], f)
		denom := evalPoly(quotient, points[j], f)
		if denom.IsZero() {
			return nil, ErrSingular{}
		}
		scale := values[j].Mul(denom.Inv())
		for i := 0; i < m; i++ {
			coeffs[i] = coeffs[i].Add(quotient[i].Mul(scale))
		}
	}

	return coeffs, nil
}

func hasDuplicate(points []field.Elem) bool {
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if points[i].Equal(points[j]) {
				return true
			}
		}
	}
	return false
}

// masterPolynomial returns the coefficients (low-to-high degree) of
// product_j (z - points[j]).
func masterPolynomial(points []field.Elem, f field.Field) []field.Elem {
	m := make([]field.Elem, 1, len(points)+1)
	m[0] = field.One(f)
	for _, p := range points {
		next := make([]field.Elem, len(m)+1)
		for i := range next {
			next[i] = field.Zero(f)
		}
		neg := p.Neg()
		for i, c := range m {
			next[i] = next[i].Add(c.Mul(neg))
			next[i+1] = next[i+1].Add(c)
		}
		m = next
	}
	return m
}

// syntheticDivide divides poly (low-to-high coefficients, degree = len-1)
// by (z - root) exactly (root is assumed to be an actual root of poly)
// and returns the degree-(len-2) quotient, low-to-high.
func syntheticDivide(poly []field.Elem, root field.Elem, f field.Field) []field.Elem {
	n := len(poly)
	quotient := make([]field.Elem, n-1)
	carry := field.Zero(f)
	for i := n - 1; i >= 1; i-- {
		coeff := poly[i].Add(carry)
		quotient[i-1] = coeff
		carry = coeff.Mul(root)
	}
	return quotient
}

func evalPoly(poly []field.Elem, x field.Elem, f field.Field) field.Elem {
	acc := field.Zero(f)
	for i := len(poly) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(poly[i])
	}
	return acc
}
