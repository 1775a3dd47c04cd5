package poly

import (
	"sort"

	"github.com/agbru/firefly/internal/field"
)

// PolynomialFF is a sparse multivariate polynomial over 𝔽ₚ: a mapping from
// ExponentTuple to a non-zero field element, plus the fixed arity n.
// Zero coefficients are never stored.
type PolynomialFF struct {
	n     int
	terms map[string]term
}

type term struct {
	exp   ExponentTuple
	coeff field.Elem
}

// NewPolynomialFF returns the zero polynomial in n variables.
func NewPolynomialFF(n int) *PolynomialFF {
	return &PolynomialFF{n: n, terms: make(map[string]term)}
}

// Arity returns the number of variables n.
func (p *PolynomialFF) Arity() int { return p.n }

// Set stores coeff for the monomial exp, removing the term if coeff is
// zero. exp must have length n.
func (p *PolynomialFF) Set(exp ExponentTuple, coeff field.Elem) {
	if len(exp) != p.n {
		panic("poly: exponent arity mismatch")
	}
	if coeff.IsZero() {
		delete(p.terms, exp.Key())
		return
	}
	p.terms[exp.Key()] = term{exp: exp.Clone(), coeff: coeff}
}

// Get returns the coefficient of exp, or the zero element of f if absent.
func (p *PolynomialFF) Get(exp ExponentTuple, f field.Field) field.Elem {
	if t, ok := p.terms[exp.Key()]; ok {
		return t.coeff
	}
	return field.Zero(f)
}

// Len returns the number of non-zero monomials.
func (p *PolynomialFF) Len() int { return len(p.terms) }

// Terms returns the monomials in canonical colex order, for deterministic
// iteration (persistence, printing, tests).
func (p *PolynomialFF) Terms() []struct {
	Exp   ExponentTuple
	Coeff field.Elem
} {
	out := make([]struct {
		Exp   ExponentTuple
		Coeff field.Elem
	}, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, struct {
			Exp   ExponentTuple
			Coeff field.Elem
		}{t.exp, t.coeff})
	}
	sort.Slice(out, func(i, j int) bool { return LessColex(out[i].Exp, out[j].Exp) })
	return out
}

// Add returns a new polynomial p+o. p and o must share arity and field.
func (p *PolynomialFF) Add(o *PolynomialFF) *PolynomialFF {
	if p.n != o.n {
		panic("poly: arity mismatch in Add")
	}
	result := NewPolynomialFF(p.n)
	for _, t := range p.terms {
		result.Set(t.exp, t.coeff)
	}
	for _, t := range o.terms {
		existing := result.Get(t.exp, t.coeff.Field())
		result.Set(t.exp, existing.Add(t.coeff))
	}
	return result
}

// Sub returns a new polynomial p-o.
func (p *PolynomialFF) Sub(o *PolynomialFF) *PolynomialFF {
	if p.n != o.n {
		panic("poly: arity mismatch in Sub")
	}
	result := NewPolynomialFF(p.n)
	for _, t := range p.terms {
		result.Set(t.exp, t.coeff)
	}
	for _, t := range o.terms {
		existing := result.Get(t.exp, t.coeff.Field())
		result.Set(t.exp, existing.Sub(t.coeff))
	}
	return result
}

// MulScalar returns p scaled by c.
func (p *PolynomialFF) MulScalar(c field.Elem) *PolynomialFF {
	result := NewPolynomialFF(p.n)
	for _, t := range p.terms {
		result.Set(t.exp, t.coeff.Mul(c))
	}
	return result
}

// Mul returns the distributed product p*o.
func (p *PolynomialFF) Mul(o *PolynomialFF) *PolynomialFF {
	if p.n != o.n {
		panic("poly: arity mismatch in Mul")
	}
	result := NewPolynomialFF(p.n)
	for _, ta := range p.terms {
		for _, tb := range o.terms {
			exp := ta.exp.Add(tb.exp)
			existing := result.Get(exp, ta.coeff.Field())
			result.Set(exp, existing.Add(ta.coeff.Mul(tb.coeff)))
		}
	}
	return result
}

// Eval evaluates p at the point given by values (one field element per
// variable, length n).
func (p *PolynomialFF) Eval(values []field.Elem) field.Elem {
	if len(values) != p.n {
		panic("poly: point arity mismatch in Eval")
	}
	f := values[0].Field()
	acc := field.Zero(f)
	for _, t := range p.terms {
		monomial := field.One(f)
		for i, e := range t.exp {
			if e == 0 {
				continue
			}
			monomial = monomial.Mul(values[i].Pow(int64(e)))
		}
		acc = acc.Add(monomial.Mul(t.coeff))
	}
	return acc
}
