package poly

import (
	"sort"

	"github.com/agbru/firefly/internal/bigrat"
)

// Polynomial is the rational-coefficient counterpart of PolynomialFF: a
// sparse multivariate polynomial whose coefficients are reduced
// big.Rat-style fractions (bigrat.Rational), produced once CRT lifting
// and rational reconstruction have finished for every monomial.
type Polynomial struct {
	n     int
	terms map[string]polyTerm
}

type polyTerm struct {
	exp   ExponentTuple
	coeff bigrat.Rational
}

// NewPolynomial returns the zero polynomial in n variables.
func NewPolynomial(n int) *Polynomial {
	return &Polynomial{n: n, terms: make(map[string]polyTerm)}
}

// Arity returns n.
func (p *Polynomial) Arity() int { return p.n }

// Set stores coeff for exp, dropping the term if coeff is zero.
func (p *Polynomial) Set(exp ExponentTuple, coeff bigrat.Rational) {
	if len(exp) != p.n {
		panic("poly: exponent arity mismatch")
	}
	if coeff.IsZero() {
		delete(p.terms, exp.Key())
		return
	}
	p.terms[exp.Key()] = polyTerm{exp: exp.Clone(), coeff: coeff}
}

// Get returns the coefficient of exp, or the zero rational if absent.
func (p *Polynomial) Get(exp ExponentTuple) bigrat.Rational {
	if t, ok := p.terms[exp.Key()]; ok {
		return t.coeff
	}
	return bigrat.RationalFromInt64(0)
}

// Len returns the number of non-zero monomials.
func (p *Polynomial) Len() int { return len(p.terms) }

// Terms returns monomials in canonical colex order.
func (p *Polynomial) Terms() []struct {
	Exp   ExponentTuple
	Coeff bigrat.Rational
} {
	out := make([]struct {
		Exp   ExponentTuple
		Coeff bigrat.Rational
	}, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, struct {
			Exp   ExponentTuple
			Coeff bigrat.Rational
		}{t.exp, t.coeff})
	}
	sort.Slice(out, func(i, j int) bool { return LessColex(out[i].Exp, out[j].Exp) })
	return out
}

// FirstColex returns the lexicographically-first (in colex order)
// monomial's exponent tuple, used to choose D's distinguished normalizer.
func (p *Polynomial) FirstColex() (ExponentTuple, bool) {
	terms := p.Terms()
	if len(terms) == 0 {
		return nil, false
	}
	return terms[0].Exp, true
}

// Normalize rescales every coefficient by 1/c, the standard step used to
// make D's lexicographically first monomial have coefficient 1 once its
// coefficient c is known. It mutates p and returns it for chaining.
func (p *Polynomial) Normalize(c bigrat.Rational) *Polynomial {
	inv := bigrat.RationalFromInt64(1).Div(c)
	for k, t := range p.terms {
		p.terms[k] = polyTerm{exp: t.exp, coeff: t.coeff.Mul(inv)}
	}
	return p
}
