package blackbox

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agbru/firefly/internal/field"
)

// ParseFunctionFormulas reads config/functions in "tag = expression" form,
// one function per line, '#'-prefixed lines are comments, blank lines are
// ignored. It returns tags in file order alongside their compiled Expr.
func ParseFunctionFormulas(r io.Reader) ([]string, []Expr, error) {
	var tags []string
	var exprs []Expr
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, nil, fmt.Errorf("blackbox: malformed function line %q, expected \"tag = expression\"", line)
		}
		tag := strings.TrimSpace(line[:eq])
		formula := strings.TrimSpace(line[eq+1:])
		if tag == "" {
			return nil, nil, fmt.Errorf("blackbox: empty function tag in line %q", line)
		}
		e, err := ParseExpr(formula)
		if err != nil {
			return nil, nil, fmt.Errorf("blackbox: function %q: %w", tag, err)
		}
		tags = append(tags, tag)
		exprs = append(exprs, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("blackbox: reading config: %w", err)
	}
	return tags, exprs, nil
}

// Expr is a parsed arithmetic expression over +, -, *, /, ^, unary minus,
// parentheses, decimal integer literals, and variable names. It is the
// minimal formula language config/functions entries are written in,
// kept intentionally small.
type Expr interface {
	eval(f field.Field, vars map[string]field.Elem) (field.Elem, error)
}

type numberExpr struct{ v uint64 }

func (n numberExpr) eval(f field.Field, _ map[string]field.Elem) (field.Elem, error) {
	return field.FromUint64(f, n.v), nil
}

type varExpr struct{ name string }

func (v varExpr) eval(_ field.Field, vars map[string]field.Elem) (field.Elem, error) {
	val, ok := vars[v.name]
	if !ok {
		return field.Elem{}, fmt.Errorf("blackbox: undefined variable %q", v.name)
	}
	return val, nil
}

type binExpr struct {
	op          byte
	left, right Expr
}

func (b binExpr) eval(f field.Field, vars map[string]field.Elem) (field.Elem, error) {
	l, err := b.left.eval(f, vars)
	if err != nil {
		return field.Elem{}, err
	}
	r, err := b.right.eval(f, vars)
	if err != nil {
		return field.Elem{}, err
	}
	switch b.op {
	case '+':
		return l.Add(r), nil
	case '-':
		return l.Sub(r), nil
	case '*':
		return l.Mul(r), nil
	case '/':
		if r.IsZero() {
			return field.Elem{}, fmt.Errorf("blackbox: division by zero mod current prime")
		}
		return l.Mul(r.Inv()), nil
	case '^':
		return l.Pow(int64(r.Uint64())), nil
	}
	panic("blackbox: unknown operator " + string(b.op))
}

type negExpr struct{ inner Expr }

func (n negExpr) eval(f field.Field, vars map[string]field.Elem) (field.Elem, error) {
	v, err := n.inner.eval(f, vars)
	if err != nil {
		return field.Elem{}, err
	}
	return v.Neg(), nil
}

// ParseExpr compiles s into an Expr, ready to be evaluated repeatedly
// against different fields and variable bindings.
func ParseExpr(s string) (Expr, error) {
	p := &exprParser{toks: tokenize(s)}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("blackbox: unexpected trailing input at %q", p.toks[p.pos])
	}
	return e, nil
}

type exprParser struct {
	toks []string
	pos  int
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parseSum handles + and -, left-associative, lowest precedence.
func (p *exprParser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peek() == "+" || p.peek() == "-" {
		op := p.next()[0]
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: op, left: left, right: right}
	}
	return left, nil
}

// parseProduct handles * and /, left-associative.
func (p *exprParser) parseProduct() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.peek() == "*" || p.peek() == "/" {
		op := p.next()[0]
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = binExpr{op: op, left: left, right: right}
	}
	return left, nil
}

// parsePower handles ^, right-associative.
func (p *exprParser) parsePower() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek() == "^" {
		p.next()
		exp, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return binExpr{op: '^', left: base, right: exp}, nil
	}
	return base, nil
}

func (p *exprParser) parseUnary() (Expr, error) {
	if p.peek() == "-" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negExpr{inner: inner}, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (Expr, error) {
	tok := p.next()
	switch {
	case tok == "":
		return nil, fmt.Errorf("blackbox: unexpected end of expression")
	case tok == "(":
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, fmt.Errorf("blackbox: expected closing parenthesis")
		}
		return inner, nil
	case isDigit(tok[0]):
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("blackbox: invalid literal %q: %w", tok, err)
		}
		return numberExpr{v: n}, nil
	default:
		return varExpr{name: tok}, nil
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b)
}

// tokenize splits s into single-character operators/parens, decimal
// literals, and identifier runs, discarding whitespace.
func tokenize(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.ContainsRune("+-*/^()", rune(c)):
			toks = append(toks, string(c))
			i++
		case isDigit(c):
			j := i
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if j == i {
				j++ // skip one unrecognized byte rather than looping forever
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

// FormulaBlackBox evaluates one parsed Expr per registered function tag
// against a shared point, implementing BlackBox directly: config/functions
// entries of the form "tag = expression" compile straight into this.
type FormulaBlackBox struct {
	vars  VariableConfig
	exprs []Expr // in the order the function tags were given
	f     field.Field
}

// NewFormulaBlackBox returns a BlackBox that evaluates every expr in
// order at each probe point, binding vars.Variables[i] to point[i].
func NewFormulaBlackBox(vars VariableConfig, exprs []Expr) *FormulaBlackBox {
	return &FormulaBlackBox{vars: vars, exprs: exprs}
}

// PrimeChanged installs the field every subsequent Evaluate/EvaluateBunch
// call uses.
func (b *FormulaBlackBox) PrimeChanged(f field.Field) { b.f = f }

// Evaluate returns one value per expression, in registration order.
func (b *FormulaBlackBox) Evaluate(point []field.Elem, _ int) ([]field.Elem, error) {
	if len(point) != len(b.vars.Variables) {
		return nil, fmt.Errorf("blackbox: point has %d coordinates, expected %d", len(point), len(b.vars.Variables))
	}
	bindings := make(map[string]field.Elem, len(point))
	for i, name := range b.vars.Variables {
		bindings[name] = point[i]
	}
	out := make([]field.Elem, len(b.exprs))
	for i, e := range b.exprs {
		v, err := e.eval(b.f, bindings)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EvaluateBunch evaluates every point independently; the formula
// evaluator is cheap enough that batching offers no shortcut over the
// pool's fallback loop, but implementing Bunched still lets it exercise
// that code path in tests without a second black box type.
func (b *FormulaBlackBox) EvaluateBunch(points [][]field.Elem, threadID int) ([][]field.Elem, error) {
	out := make([][]field.Elem, len(points))
	for i, pt := range points {
		vals, err := b.Evaluate(pt, threadID)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}
