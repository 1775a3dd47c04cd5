// Package blackbox defines the contract the reconstruction engine probes
// against, plus the registry, config-file parsing, and (expr.go) a small
// formula-expression evaluator that let ff_insert discover which black
// boxes to reconstruct, over which variables, and from what expression.
package blackbox

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agbru/firefly/internal/field"
)

// BlackBox is the contract a reconstructed function must satisfy.
// Evaluate is called once per probe point per worker thread; PrimeChanged
// is called exactly once per new-prime transition, on a single thread,
// before any worker evaluates in the new field.
type BlackBox interface {
	// Evaluate returns one output per function for the given point.
	Evaluate(point []field.Elem, threadID int) ([]field.Elem, error)
	// PrimeChanged notifies the black box that the active field changed.
	PrimeChanged(f field.Field)
}

// Bunched is implemented by black boxes that can evaluate a batch of
// points more efficiently than one at a time. A BlackBox that does not
// implement this is still usable; the pool falls back to calling
// Evaluate once per point in the bunch.
type Bunched interface {
	EvaluateBunch(points [][]field.Elem, threadID int) ([][]field.Elem, error)
}

// Registry maps a user-assigned function tag to its BlackBox
// implementation, a tag-keyed lookup generalized from a fixed algorithm
// set to an open, config-file-driven tag set.
type Registry struct {
	boxes map[string]BlackBox
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{boxes: make(map[string]BlackBox)}
}

// Register adds bb under tag. Registering the same tag twice replaces the
// previous entry but preserves its original position in Tags().
func (r *Registry) Register(tag string, bb BlackBox) {
	if _, exists := r.boxes[tag]; !exists {
		r.order = append(r.order, tag)
	}
	r.boxes[tag] = bb
}

// Lookup returns the black box registered under tag, if any.
func (r *Registry) Lookup(tag string) (BlackBox, bool) {
	bb, ok := r.boxes[tag]
	return bb, ok
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered black boxes.
func (r *Registry) Len() int { return len(r.boxes) }

// FunctionConfig is the parsed contents of config/functions plus
// config/skip_functions: the ordered list of function tags to
// reconstruct, minus any explicitly skipped.
type FunctionConfig struct {
	Functions []string
}

// VariableConfig is the parsed contents of config/vars: the ordered list
// of variable names, whose length fixes the reconstruction arity n.
type VariableConfig struct {
	Variables []string
}

// Arity returns the number of variables.
func (v VariableConfig) Arity() int { return len(v.Variables) }

// ParseFunctions reads config/functions: one function name per line,
// '#'-prefixed lines are comments, blank lines are ignored.
func ParseFunctions(r io.Reader) (FunctionConfig, error) {
	names, err := parseLines(r)
	if err != nil {
		return FunctionConfig{}, err
	}
	return FunctionConfig{Functions: names}, nil
}

// ParseSkipFunctions reads config/skip_functions with the same grammar as
// ParseFunctions, returning the set of tags to exclude.
func ParseSkipFunctions(r io.Reader) (map[string]bool, error) {
	names, err := parseLines(r)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	return skip, nil
}

// ParseVariables reads config/vars: one variable name per line.
func ParseVariables(r io.Reader) (VariableConfig, error) {
	names, err := parseLines(r)
	if err != nil {
		return VariableConfig{}, err
	}
	if len(names) == 0 {
		return VariableConfig{}, fmt.Errorf("blackbox: config/vars declares no variables")
	}
	return VariableConfig{Variables: names}, nil
}

// ApplySkip filters fc down to the tags not present in skip, preserving
// order.
func (fc FunctionConfig) ApplySkip(skip map[string]bool) FunctionConfig {
	if len(skip) == 0 {
		return fc
	}
	out := make([]string, 0, len(fc.Functions))
	for _, name := range fc.Functions {
		if !skip[name] {
			out = append(out, name)
		}
	}
	return FunctionConfig{Functions: out}
}

func parseLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("blackbox: reading config: %w", err)
	}
	return out, nil
}
