// Package persist implements checkpoint/resume: a gzip file tree
// recording enough state for ff_insert to pick a reconstruction back up
// after an interruption without restarting every function from prime 0.
// Generalized from internal/calibration's JSON-profile persistence to a
// whole directory layout; write is atomic (write to tmp/, then rename)
// so a crash mid-checkpoint never leaves a corrupt file that a later
// resume would trip over.
package persist

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/agbru/firefly/internal/bigrat"
	"github.com/agbru/firefly/internal/poly"
)

// Store is a checkpoint directory rooted at Dir:
//
//	Dir/
//	  global.gz          shared prime-rotation position (GlobalState)
//	  states/<tag>.gz     one function's checkpoint (FunctionState)
//	  factors/            factor-scan intermediate results (reserved)
//	  factors_rf/         factor-scan intermediate rational functions (reserved)
//	  tmp/                scratch directory atomicWrite renames out of
type Store struct {
	Dir string
}

// Open creates (if needed) the directory tree rooted at dir and returns a
// Store over it.
func Open(dir string) (*Store, error) {
	for _, sub := range []string{"states", "factors", "factors_rf", "tmp"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
	}
	return &Store{Dir: dir}, nil
}

// GlobalState is the shared prime-rotation position common to every
// function in one run: all functions advance through the same prime
// sequence together.
type GlobalState struct {
	PrimeIdx int `json:"prime_idx"`
}

// WriteGlobalState checkpoints the shared prime-rotation position.
func (s *Store) WriteGlobalState(gs GlobalState) error {
	return s.writeGzipJSON("global.gz", gs)
}

// ReadGlobalState loads a prior checkpoint's prime-rotation position, if
// one exists.
func (s *Store) ReadGlobalState() (GlobalState, bool, error) {
	var gs GlobalState
	ok, err := s.readGzipJSON("global.gz", &gs)
	return gs, ok, err
}

// TermRecord is one monomial of a serialized rational-coefficient
// polynomial: the exponent tuple plus the coefficient rendered as
// "num/den" decimal strings, since big.Int has no compact JSON form of
// its own.
type TermRecord struct {
	Exp  []uint32 `json:"exp"`
	Num  string   `json:"num"`
	Den  string   `json:"den"`
}

// FunctionState is a completed function's checkpoint: just enough to
// reproduce its accepted rational function on resume without redriving
// RatReconst at all. A function that has not yet converged when a
// checkpoint is taken is simply omitted and restarted from the current
// GlobalState.PrimeIdx on resume — this trades replaying one prime
// round's probes for not needing to serialize Thiele/PolyReconst's
// mid-line internal tableau state.
type FunctionState struct {
	Tag    string       `json:"tag"`
	Arity  int          `json:"arity"`
	Num    []TermRecord `json:"num"`
	Den    []TermRecord `json:"den"`
}

// WriteFunctionState checkpoints a converged function's result.
func (s *Store) WriteFunctionState(fs FunctionState) error {
	return s.writeGzipJSON(filepath.Join("states", fs.Tag+".gz"), fs)
}

// ReadFunctionState loads a previously checkpointed function's result,
// if one exists for tag.
func (s *Store) ReadFunctionState(tag string) (FunctionState, bool, error) {
	var fs FunctionState
	ok, err := s.readGzipJSON(filepath.Join("states", tag+".gz"), &fs)
	return fs, ok, err
}

// EncodePolynomial converts p into its checkpoint form.
func EncodePolynomial(p *poly.Polynomial) []TermRecord {
	terms := p.Terms()
	out := make([]TermRecord, len(terms))
	for i, t := range terms {
		out[i] = TermRecord{Exp: []uint32(t.Exp), Num: t.Coeff.Num.String(), Den: t.Coeff.Den.String()}
	}
	return out
}

// DecodePolynomial rebuilds a poly.Polynomial of the given arity from its
// checkpoint form.
func DecodePolynomial(arity int, records []TermRecord) (*poly.Polynomial, error) {
	p := poly.NewPolynomial(arity)
	for _, t := range records {
		num, ok := new(big.Int).SetString(t.Num, 10)
		if !ok {
			return nil, fmt.Errorf("persist: malformed numerator %q", t.Num)
		}
		den, ok := new(big.Int).SetString(t.Den, 10)
		if !ok {
			return nil, fmt.Errorf("persist: malformed denominator %q", t.Den)
		}
		p.Set(poly.ExponentTuple(t.Exp), bigrat.NewRational(num, den))
	}
	return p, nil
}

func (s *Store) writeGzipJSON(rel string, v any) error {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gw).Encode(v); err != nil {
		return fmt.Errorf("persist: encode %s: %w", rel, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("persist: close gzip writer for %s: %w", rel, err)
	}
	return s.atomicWrite(rel, buf.Bytes())
}

func (s *Store) atomicWrite(rel string, data []byte) error {
	final := filepath.Join(s.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	tmp := filepath.Join(s.Dir, "tmp", filepath.Base(rel)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persist: write temp file for %s: %w", rel, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("persist: rename into place %s: %w", rel, err)
	}
	return nil
}

func (s *Store) readGzipJSON(rel string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, rel))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persist: read %s: %w", rel, err)
	}
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("persist: gzip reader for %s: %w", rel, err)
	}
	defer gr.Close()
	if err := json.NewDecoder(gr).Decode(v); err != nil {
		return false, fmt.Errorf("persist: decode %s: %w", rel, err)
	}
	return true, nil
}
