// Package ratreconst implements RatReconst (C7): reconstruction of a
// single scalar multivariate rational function f = N/D over the rationals
// from a stream of black-box values, driving ThieleInterpolator (C5) and
// PolyReconst (C6), lifting coefficients across primes via CRT (C2), and
// finishing with rational reconstruction and a black-box agreement test.
package ratreconst

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/agbru/firefly/internal/bigrat"
	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/poly"
	"github.com/agbru/firefly/internal/polyreconst"
	"github.com/agbru/firefly/internal/thiele"
)

// Phase is a RatReconst's position in its per-function state machine:
// Uni-Thiele → Multi-Newton → Normalization → CRT-Lifting ⇄ RationalTest
// → Done.
type Phase int

const (
	PhaseUniThiele Phase = iota
	PhaseMultiNewton
	PhaseNormalization
	PhaseCRTLifting
	PhaseRationalTest
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUniThiele:
		return "UniThiele"
	case PhaseMultiNewton:
		return "MultiNewton"
	case PhaseNormalization:
		return "Normalization"
	case PhaseCRTLifting:
		return "CRTLifting"
	case PhaseRationalTest:
		return "RationalTest"
	case PhaseDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ZiOrder is the (n-1)-length vector of anchor exponents (e_2,...,e_n)
// that, together with a scalar t, parameterizes one probe: x_1 = t and
// x_i = anchorBase[i-2]^{e_i}*t for i >= 2, with the shift applied by the
// caller before the black box is invoked — see DESIGN.md for why the
// layered decomposition below assumes a zero-shift line.
type ZiOrder = poly.ExponentTuple

// Options configures rational reconstruction and retry behavior.
type Options struct {
	Method            bigrat.Method
	SafeInterpolation bool
	RankRetryBudget   int
}

// Option mutates Options.
type Option func(*Options)

// WithMQRR selects Monagan's MQRR over the default Wang rational
// reconstruction.
func WithMQRR() Option { return func(o *Options) { o.Method = bigrat.MQRR } }

// WithSafeInterpolation records ff_insert's -safe flag in
// Options.SafeInterpolation. The interpolation path does not read it: it
// never elides zero coefficients or assumes a sparse shift, so the probes
// issued are the same either way.
func WithSafeInterpolation(v bool) Option { return func(o *Options) { o.SafeInterpolation = v } }

// WithRankRetryBudget overrides polyreconst.MaxAnchorRetries for this
// function.
func WithRankRetryBudget(n int) Option { return func(o *Options) { o.RankRetryBudget = n } }

func defaultOptions() Options {
	return Options{Method: bigrat.Wang, RankRetryBudget: polyreconst.MaxAnchorRetries}
}

type pendingProbe struct {
	t, value field.Elem
}

// ZiRequest describes a batch of probes the caller should schedule next:
// count more distinct t values along order.
type ZiRequest struct {
	Order ZiOrder
	Count int
}

// RatReconst reconstructs one scalar rational function of Arity variables.
// All exported methods are safe to call from a single goroutine at a time
// per instance; the Reconstructor enforces this via its per-function
// "feeding/interpolating" flag.
type RatReconst struct {
	mu    sync.Mutex
	arity int
	tag   string
	opts  Options

	f            field.Field
	primeCounter int
	phase        Phase

	anchorBase []field.Elem // length arity-1
	shift      []field.Elem // length arity, carried for persistence/API only

	expectedZi ZiOrder
	pending    map[string][]pendingProbe // saved_ti buffer: zi key -> out-of-order probes
	seenT      map[string]map[uint64]bool

	uni *thiele.Interpolator

	maxDegNum, maxDegDen int
	ziPlan               []ZiOrder
	anchorVectors        [][]field.Elem
	ziIdx                int
	active               *thiele.Interpolator
	numRe, denRe         *polyreconst.PolyReconst
	rankRetries          int

	normalizerExp poly.ExponentTuple
	combinedNum   map[string]*combinedEntry
	combinedDen   map[string]*combinedEntry
	primesUsed    []uint64

	lastNumFF, lastDenFF *poly.PolynomialFF
	guessNum, guessDen   *poly.Polynomial

	needNewPrime bool
	newPrimeSeen bool

	resultNum, resultDen *poly.Polynomial
	done                 bool
}

// combinedEntry pairs a monomial's exponent tuple with its running CRT
// combination, since map keys (poly.ExponentTuple.Key()) are not
// invertible back into a tuple.
type combinedEntry struct {
	exp poly.ExponentTuple
	val bigrat.Combined
}

// New returns a RatReconst for a function tagged tag over `arity`
// variables, awaiting its first AdvancePrime before any probe can be fed.
func New(tag string, arity int, opts ...Option) *RatReconst {
	if arity < 1 {
		panic("ratreconst: arity must be at least 1")
	}
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &RatReconst{
		arity:       arity,
		tag:         tag,
		opts:        o,
		phase:       PhaseUniThiele,
		expectedZi:  allOnes(arity - 1),
		pending:     make(map[string][]pendingProbe),
		seenT:       make(map[string]map[uint64]bool),
		combinedNum: make(map[string]*combinedEntry),
		combinedDen: make(map[string]*combinedEntry),
	}
}

// AdoptResult installs num/den as an already-converged result without
// driving any interpolation, for a function whose result was loaded from
// a checkpoint rather than reconstructed in this run. It never runs the
// black-box agreement test performed by TestGuess, since a checkpointed
// result was already accepted by a prior run's TestGuess before it was
// persisted.
func (r *RatReconst) AdoptResult(num, den *poly.Polynomial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resultNum, r.resultDen = num, den
	r.done = true
	r.phase = PhaseDone
}

// Tag returns the function's user-assigned identity.
func (r *RatReconst) Tag() string { return r.tag }

// Arity returns the number of variables.
func (r *RatReconst) Arity() int { return r.arity }

func allOnes(n int) ZiOrder {
	z := make(ZiOrder, n)
	for i := range z {
		z[i] = 1
	}
	return z
}

// AdvancePrime starts (or restarts, on CRT-lifting's request) a new prime
// round: it installs the field and the per-prime anchor base and shift
// (both owned and drawn by the caller, shared across every function in a
// run), and resets the univariate/multivariate interpolation state for
// that prime. It must be called before the first Feed, and again every
// time NeedsNewPrime reports true.
func (r *RatReconst) AdvancePrime(f field.Field, anchorBase, shift []field.Elem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(anchorBase) != r.arity-1 {
		panic("ratreconst: anchorBase length must be arity-1")
	}
	if len(shift) != r.arity {
		panic("ratreconst: shift length must equal arity")
	}

	r.f = f
	r.anchorBase = anchorBase
	r.shift = shift
	r.primeCounter++
	r.primesUsed = append(r.primesUsed, f.Prime())
	r.needNewPrime = false
	r.newPrimeSeen = true
	r.pending = make(map[string][]pendingProbe)
	r.seenT = make(map[string]map[uint64]bool)
	r.rankRetries = 0

	if r.phase == PhaseUniThiele {
		r.uni = thiele.New(f)
		r.expectedZi = allOnes(r.arity - 1)
		return
	}

	// CRT-lifting round: degree bounds are already frozen from prime 0.
	r.phase = PhaseCRTLifting
	r.startMultiNewtonRound()
}

// AcknowledgeNewPrime clears the "just started a new prime" flag once the
// caller has recorded it (e.g. for logging or persistence).
func (r *RatReconst) AcknowledgeNewPrime() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newPrimeSeen = false
}

// IsNewPrime reports whether AdvancePrime was called since the last
// AcknowledgeNewPrime.
func (r *RatReconst) IsNewPrime() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newPrimeSeen
}

// NeedsNewPrime reports whether the function is waiting on AdvancePrime
// before it can make further progress.
func (r *RatReconst) NeedsNewPrime() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.needNewPrime
}

// GetPrime returns the modulus of the field currently in use.
func (r *RatReconst) GetPrime() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Prime()
}

// PrimeCounter returns the prime-round counter a Feed call must match to
// be accepted, i.e. the value AdvancePrime most recently installed.
func (r *RatReconst) PrimeCounter() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.primeCounter
}

// Phase returns the function's current state-machine phase.
func (r *RatReconst) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// IsDone reports whether the function has reached PhaseDone.
func (r *RatReconst) IsDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Status reports a short human-readable summary of the function's state.
func (r *RatReconst) Status() string {
	if r.IsDone() {
		return "Done"
	}
	return "Reconstructing"
}

// AnchorVector expands a zi_order into the full arity-length point
// direction (1, anchorBase[0]^zi[0], ..., anchorBase[n-2]^zi[n-2]), the
// vector v such that x = t*v is the zero-shift probe line for that order.
func (r *RatReconst) AnchorVector(zi ZiOrder) []field.Elem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.anchorVector(zi)
}

func (r *RatReconst) anchorVector(zi ZiOrder) []field.Elem {
	v := make([]field.Elem, r.arity)
	v[0] = field.One(r.f)
	for i, e := range zi {
		v[i+1] = r.anchorBase[i].Pow(int64(e))
	}
	return v
}

// Point builds the actual probe coordinates for scalar t at zi_order zi,
// applying the current shift: x_i = anchor^e * t + shift.
func (r *RatReconst) Point(t field.Elem, zi ZiOrder) []field.Elem {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.anchorVector(zi)
	pt := make([]field.Elem, r.arity)
	for i := range pt {
		pt[i] = v[i].Mul(t).Add(r.shift[i])
	}
	return pt
}

// Feed records one probe result. It is idempotent for a duplicate
// (t, zi, primeCounter) triple and silently buffers probes whose zi_order
// does not match the phase's currently expected order.
func (r *RatReconst) Feed(t, value field.Elem, zi ZiOrder, primeCounter int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if primeCounter != r.primeCounter {
		return nil // stale probe from a superseded prime round, drop
	}
	key := zi.Key()
	if r.seenT[key] == nil {
		r.seenT[key] = make(map[uint64]bool)
	}
	if r.seenT[key][t.Uint64()] {
		return nil // duplicate, scheduler-level dedup should prevent this
	}
	r.seenT[key][t.Uint64()] = true

	r.pending[key] = append(r.pending[key], pendingProbe{t: t, value: value})
	return nil
}

// GetNumEqn hints how many more probes at the current zi_order are needed
// before the active step (Thiele convergence or a PolyReconst layer) can
// complete.
func (r *RatReconst) GetNumEqn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getNumEqnLocked()
}

func (r *RatReconst) getNumEqnLocked() int {
	if r.phase == PhaseDone || r.needNewPrime {
		return 0
	}
	if r.phase == PhaseRationalTest {
		return 1 // one black-box agreement probe, not driven by expectedZi
	}
	if r.active != nil {
		need := r.maxDegDen
		if r.maxDegNum > need {
			need = r.maxDegNum
		}
		return need + 1 - r.active.NumPoints()
	}
	return 1
}

// GetZiOrders lists the zi_order batches the scheduler should dispatch
// next. It returns nil during RationalTest (the agreement probe is driven
// directly via TestGuess, not through Feed/Interpolate) and while a fresh
// prime is pending.
func (r *RatReconst) GetZiOrders() []ZiRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseDone || r.phase == PhaseRationalTest || r.needNewPrime {
		return nil
	}
	return []ZiRequest{{Order: r.expectedZi, Count: r.getNumEqnLocked()}}
}

// Interpolate drains buffered probes for the currently expected zi_order
// and advances the phase as far as the available data allows. It should be
// called after every Feed.
func (r *RatReconst) Interpolate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interpolateLocked()
}

func (r *RatReconst) interpolateLocked() error {
	if r.phase == PhaseDone {
		return nil
	}
	if r.uni == nil && r.active == nil {
		return nil // awaiting AdvancePrime
	}

	interp := r.uni
	if r.phase != PhaseUniThiele {
		interp = r.active
	}

	key := r.expectedZi.Key()
	for len(r.pending[key]) > 0 {
		p := r.pending[key][0]
		r.pending[key] = r.pending[key][1:]

		switch interp.AddPoint(p.t, p.value) {
		case thiele.NeedFreshT:
			continue // caller must supply a distinct t; drop this one
		case thiele.NeedMore:
			continue
		case thiele.Converged:
			return r.onLineConverged()
		}
	}
	return nil
}

func (r *RatReconst) onLineConverged() error {
	switch r.phase {
	case PhaseUniThiele:
		return r.finishUniThiele()
	case PhaseMultiNewton, PhaseCRTLifting:
		return r.finishMultiNewtonLine()
	default:
		return nil
	}
}

// finishUniThiele extracts degree bounds from the primary line's canonical
// form and starts the Multi-Newton phase, reusing the primary line's own
// coefficients as the first anchor's homogeneous decomposition.
func (r *RatReconst) finishUniThiele() error {
	num, den := r.uni.Coefficients()
	r.maxDegNum = len(num) - 1
	r.maxDegDen = len(den) - 1
	if r.maxDegNum < 0 {
		r.maxDegNum = 0
	}
	if r.maxDegDen < 0 {
		r.maxDegDen = 0
	}

	r.phase = PhaseMultiNewton
	r.startMultiNewtonRound()

	// The primary (all-ones) line is anchor 0 for both PolyReconst
	// instances; its data is already in hand from Uni-Thiele.
	if err := r.feedHomogeneousLine(num, den); err != nil {
		return err
	}
	return r.advanceZiPlan()
}

// startMultiNewtonRound (re)builds the ziPlan/PolyReconst pair for the
// current field, reusing frozen maxDegNum/maxDegDen. Called both when
// Uni-Thiele first completes and at the start of every CRT-lifting prime.
func (r *RatReconst) startMultiNewtonRound() {
	needNum := polyreconst.NumAnchors(r.arity, r.maxDegNum)
	needDen := polyreconst.NumAnchors(r.arity, r.maxDegDen)
	need := needNum
	if needDen > need {
		need = needDen
	}

	r.ziPlan = make([]ZiOrder, need)
	r.ziPlan[0] = allOnes(r.arity - 1)
	extra := generateZiOrders(r.arity-1, need-1, r.rankRetries)
	copy(r.ziPlan[1:], extra)

	r.anchorVectors = make([][]field.Elem, need)
	numAnchors := make([][]field.Elem, needNum)
	denAnchors := make([][]field.Elem, needDen)
	for i, zi := range r.ziPlan {
		v := r.anchorVector(zi)
		r.anchorVectors[i] = v
		if i < needNum {
			numAnchors[i] = v
		}
		if i < needDen {
			denAnchors[i] = v
		}
	}

	numRe, err := polyreconst.New(r.arity, r.maxDegNum, r.f, numAnchors)
	if err != nil {
		panic(fmt.Sprintf("ratreconst: %v", err)) // arity/count mismatch is a bug, not runtime data
	}
	denRe, err := polyreconst.New(r.arity, r.maxDegDen, r.f, denAnchors)
	if err != nil {
		panic(fmt.Sprintf("ratreconst: %v", err))
	}
	r.numRe, r.denRe = numRe, denRe

	r.ziIdx = 0
	r.expectedZi = r.ziPlan[0]
	r.active = thiele.New(r.f)
}

// generateZiOrders deterministically produces `count` distinct exponent
// tuples in numVars dimensions, none of them all-ones (reserved for the
// primary line). Reproducibility across runs and across a checkpoint/
// resume cycle matters more here than true randomness, since any distinct
// tuples make the resulting anchor vectors generically independent. salt
// offsets the starting counter (retryOrFail passes its rankRetries count)
// so a rank-deficiency retry draws a shifted anchor set instead of
// silently regenerating the same singular system; the shifted set may
// still share tuples with earlier ones.
func generateZiOrders(numVars, count, salt int) []ZiOrder {
	if numVars == 0 {
		return make([]ZiOrder, count) // arity 1: no free zi component at all
	}
	out := make([]ZiOrder, count)
	counter := make([]uint32, numVars)
	for i := range counter {
		counter[i] = uint32(1 + salt%5)
	}
	for i := 0; i < count; i++ {
		advanceZiCounter(counter)
		tup := make(ZiOrder, numVars)
		copy(tup, counter)
		out[i] = tup
	}
	return out
}

func advanceZiCounter(c []uint32) {
	c[0]++
	for i := 0; i < len(c)-1 && c[i] > 6; i++ {
		c[i] = 1
		c[i+1]++
	}
}

func (r *RatReconst) feedHomogeneousLine(num, den []field.Elem) error {
	numH := padTo(num, r.maxDegNum+1, r.f)
	denH := padTo(den, r.maxDegDen+1, r.f)
	if err := r.numRe.FeedHomogeneous(r.ziIdx, numH); err != nil {
		return fmt.Errorf("ratreconst: %s: %w", r.tag, err)
	}
	if err := r.denRe.FeedHomogeneous(r.ziIdx, denH); err != nil {
		return fmt.Errorf("ratreconst: %s: %w", r.tag, err)
	}
	return nil
}

func padTo(v []field.Elem, n int, f field.Field) []field.Elem {
	out := make([]field.Elem, n)
	for i := range out {
		if i < len(v) {
			out[i] = v[i]
		} else {
			out[i] = field.Zero(f)
		}
	}
	return out
}

// finishMultiNewtonLine records the just-converged zi_order's homogeneous
// decomposition and either advances to the next zi_order or, once every
// anchor is ready, solves both PolyReconst instances and moves on to
// Normalization (or, in CRT-lifting rounds, straight to the CRT fold).
func (r *RatReconst) finishMultiNewtonLine() error {
	num, den := r.active.Coefficients()
	if err := r.feedHomogeneousLine(num, den); err != nil {
		return err
	}
	return r.advanceZiPlan()
}

func (r *RatReconst) advanceZiPlan() error {
	r.ziIdx++
	if r.ziIdx < len(r.ziPlan) {
		r.expectedZi = r.ziPlan[r.ziIdx]
		r.active = thiele.New(r.f)
		return nil
	}
	return r.solveLayers()
}

func (r *RatReconst) solveLayers() error {
	numFF, err := r.numRe.SolveAll()
	if err != nil {
		return r.retryOrFail(err)
	}
	denFF, err := r.denRe.SolveAll()
	if err != nil {
		return r.retryOrFail(err)
	}

	if r.phase == PhaseMultiNewton {
		r.phase = PhaseNormalization
	}
	return r.normalizeAndFold(numFF, denFF)
}

// retryOrFail implements the anchor-retry contract: a singular layer
// restarts Multi-Newton with a fresh anchor plan, up to RankRetryBudget
// times, and is otherwise fatal.
func (r *RatReconst) retryOrFail(cause error) error {
	r.rankRetries++
	if r.rankRetries > r.opts.RankRetryBudget {
		return fmt.Errorf("ratreconst: %s: exhausted rank retry budget: %w", r.tag, cause)
	}
	// Restart Multi-Newton with a fresh anchor/zi_order plan; every line,
	// including the primary one, is re-collected from scratch rather than
	// reusing the failed round's data.
	r.startMultiNewtonRound()
	return nil
}

// normalizeAndFold rescales numFF/denFF so that D's distinguished monomial
// has coefficient 1, folds both into the running CRT combination, and
// attempts rational reconstruction. The normalizer monomial is chosen
// once, from D's colex-least term at prime 0, and reused at every later
// prime so that every folded residue is consistent with the same overall
// scale factor.
func (r *RatReconst) normalizeAndFold(numFF, denFF *poly.PolynomialFF) error {
	denTerms := denFF.Terms()
	if len(denTerms) == 0 {
		return fmt.Errorf("ratreconst: %s: reconstructed a zero denominator", r.tag)
	}
	if r.normalizerExp == nil {
		r.normalizerExp = denTerms[0].Exp
	}

	c := denFF.Get(r.normalizerExp, r.f)
	if c.IsZero() {
		// The chosen normalizer monomial vanished at this particular prime.
		// A different normalizer can't be substituted mid-flight without
		// desynchronizing the CRT residues already folded under the old
		// one, so just ask for a replacement prime and retry this round.
		r.needNewPrime = true
		r.phase = PhaseCRTLifting
		return nil
	}
	inv := c.Inv()
	numFF = numFF.MulScalar(inv)
	denFF = denFF.MulScalar(inv)
	r.lastNumFF, r.lastDenFF = numFF, denFF

	r.foldCRT(numFF, r.combinedNum)
	r.foldCRT(denFF, r.combinedDen)

	r.phase = PhaseCRTLifting
	return r.attemptRationalReconstruction()
}

// foldCRT combines every monomial of ff into combined's running residues.
// A monomial that appeared in an earlier prime but not this one is folded
// in as a zero residue, since it may simply be a coefficient that reduces
// to zero mod the current prime rather than one that is truly absent.
func (r *RatReconst) foldCRT(ff *poly.PolynomialFF, combined map[string]*combinedEntry) {
	p := r.f.Prime()
	seen := make(map[string]bool, len(combined))
	for _, t := range ff.Terms() {
		key := t.Exp.Key()
		seen[key] = true
		foldOne(combined, key, t.Exp, t.Coeff.Uint64(), p)
	}
	for key, e := range combined {
		if !seen[key] {
			foldOne(combined, key, e.exp, 0, p)
		}
	}
}

func foldOne(combined map[string]*combinedEntry, key string, exp poly.ExponentTuple, residue, modulus uint64) {
	e, ok := combined[key]
	if !ok {
		combined[key] = &combinedEntry{exp: exp.Clone(), val: bigrat.NewCombined(residue, modulus)}
		return
	}
	e.val = e.val.Fold(residue, modulus)
}

// attemptRationalReconstruction runs Wang/MQRR reconstruction over every
// combined monomial of both numerator and denominator. If any monomial's
// residue doesn't yet admit a small enough (n,d) pair, more primes are
// needed and the tentative guess is discarded; otherwise the guess moves
// to the black-box agreement test.
func (r *RatReconst) attemptRationalReconstruction() error {
	numPoly, numOK := reconstructAll(r.combinedNum, r.arity, r.opts.Method)
	denPoly, denOK := reconstructAll(r.combinedDen, r.arity, r.opts.Method)
	if !numOK || !denOK {
		r.needNewPrime = true
		return nil
	}
	r.guessNum, r.guessDen = numPoly, denPoly
	r.phase = PhaseRationalTest
	return nil
}

func reconstructAll(combined map[string]*combinedEntry, arity int, method bigrat.Method) (*poly.Polynomial, bool) {
	p := poly.NewPolynomial(arity)
	for _, e := range combined {
		rat, ok := bigrat.Reconstruct(e.val.Signed(), e.val.Modulus, method)
		if !ok {
			return nil, false
		}
		p.Set(e.exp, rat)
	}
	return p, true
}

// TestGuess evaluates the tentative rational guess at point and compares
// it against a fresh black-box value. On mismatch or a vanishing
// denominator, the guess is discarded and another prime is requested; on
// agreement, the function is Done.
func (r *RatReconst) TestGuess(point []field.Elem, blackboxValue field.Elem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRationalTest {
		return fmt.Errorf("ratreconst: %s: TestGuess called outside RationalTest phase (in %s)", r.tag, r.phase)
	}

	num := evalRationalPolynomial(r.guessNum, point, r.f)
	den := evalRationalPolynomial(r.guessDen, point, r.f)
	if den.IsZero() || !num.Mul(den.Inv()).Equal(blackboxValue) {
		r.guessNum, r.guessDen = nil, nil
		r.needNewPrime = true
		r.phase = PhaseCRTLifting
		return nil
	}

	r.resultNum, r.resultDen = r.guessNum, r.guessDen
	r.done = true
	r.phase = PhaseDone
	return nil
}

// evalRationalPolynomial evaluates a rational-coefficient polynomial at
// point after reducing every coefficient into f, for the black-box
// agreement test.
func evalRationalPolynomial(p *poly.Polynomial, point []field.Elem, f field.Field) field.Elem {
	acc := field.Zero(f)
	for _, t := range p.Terms() {
		monomial := field.One(f)
		for i, e := range t.Exp {
			if e == 0 {
				continue
			}
			monomial = monomial.Mul(point[i].Pow(int64(e)))
		}
		acc = acc.Add(monomial.Mul(ratModField(t.Coeff, f)))
	}
	return acc
}

// ratModField reduces a big.Rat-style coefficient modulo f's prime.
func ratModField(rat bigrat.Rational, f field.Field) field.Elem {
	p := new(big.Int).SetUint64(f.Prime())
	n := new(big.Int).Mod(rat.Num, p)
	d := new(big.Int).Mod(rat.Den, p)
	return field.FromUint64(f, n.Uint64()).Mul(field.FromUint64(f, d.Uint64()).Inv())
}

// GetResult returns the accepted rational function once TestGuess has
// confirmed it.
func (r *RatReconst) GetResult() (num, den *poly.Polynomial, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done {
		return nil, nil, false
	}
	return r.resultNum, r.resultDen, true
}

// GetResultFF returns the most recently solved per-prime coefficients
// without waiting for CRT lifting or rational reconstruction;
// Reconstructor reports them in FunctionResult.NumFF/DenFF.
func (r *RatReconst) GetResultFF() (num, den *poly.PolynomialFF, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastNumFF == nil || r.lastDenFF == nil {
		return nil, nil, false
	}
	return r.lastNumFF, r.lastDenFF, true
}
