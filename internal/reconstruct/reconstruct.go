// Package reconstruct implements the Reconstructor (C9): the concurrent
// scheduler that drives one RatReconst state machine per registered
// black-box function, rotating primes/anchors/shifts at each new-prime
// barrier, dispatching probes through a pool.Pool, and finishing each
// function with its black-box agreement test. Grounded on
// internal/orchestration.ExecuteCalculations (errgroup fan-out, progress
// channel, WaitGroup drain) and internal/app/app.go's top-level lifecycle
// wiring (config -> factory -> run -> report), generalized from a fixed
// algorithm comparison to an open-ended set of concurrently reconstructed
// functions.
package reconstruct

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/metrics"
	"github.com/agbru/firefly/internal/persist"
	"github.com/agbru/firefly/internal/poly"
	"github.com/agbru/firefly/internal/ratreconst"
)

// Config holds the scheduling knobs exposed by ff_insert's flags.
type Config struct {
	Workers           int
	BunchSize         int
	MaxPrimes         int
	SafeInterpolation bool
	FactorScan        bool
	ShiftScan         bool
	RankRetryBudget   int
}

// FunctionResult is one function's outcome once the Reconstructor
// finishes: the rational reconstruction once converged, and the most
// recent prime's finite-field coefficients once any prime round has
// solved them.
type FunctionResult struct {
	Tag         string
	Num, Den    *poly.Polynomial
	NumFF, DenFF *poly.PolynomialFF
	Err         error
}

// registeredFunc pairs a function's RatReconst with its position in the
// shared black box's output vector: Evaluate returns one value per
// registered function for a given point, so every probe's result must be
// indexed by outputIdx to find the value that belongs to this function.
type registeredFunc struct {
	tag       string
	outputIdx int
	rec       *ratreconst.RatReconst
}

// Reconstructor drives every registered function's RatReconst against a
// shared black box, one prime at a time, until every function is Done or
// MaxPrimes is exhausted.
type Reconstructor struct {
	cfg      Config
	bb       blackbox.BlackBox
	arity    int
	observer blackbox.ProgressObserver
	store    *persist.Store // nil if checkpointing is disabled
	logger   zerolog.Logger
	metrics  *metrics.Metrics // nil if -metrics-addr was not given

	rng *rand.Rand

	functions []*registeredFunc

	primeIdx   int
	fld        field.Field
	anchorBase []field.Elem
	shift      []field.Elem
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithObserver attaches a progress observer.
func WithObserver(o blackbox.ProgressObserver) Option {
	return func(r *Reconstructor) { r.observer = o }
}

// WithPersistence attaches a checkpoint store; if set, New resumes any
// prior state found in it and Run checkpoints after every completed
// prime round.
func WithPersistence(s *persist.Store) Option {
	return func(r *Reconstructor) { r.store = s }
}

// WithLogger attaches a zerolog logger for scheduler-level events (new
// prime, function done, fatal errors).
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconstructor) { r.logger = l }
}

// WithMetrics attaches Prometheus counters/gauges and an OpenTelemetry
// tracer; probe dispatch, prime advancement, and active-function counts
// are reported through it when set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconstructor) { r.metrics = m }
}

// WithSeed fixes the anchor/shift RNG, for reproducible tests; production
// callers should omit this and get a fresh entropy-seeded generator.
func WithSeed(seed1, seed2 uint64) Option {
	return func(r *Reconstructor) { r.rng = rand.New(rand.NewPCG(seed1, seed2)) }
}

// New returns a Reconstructor for the given black box and function tags,
// each reconstructed as a rational function of `arity` variables.
func New(bb blackbox.BlackBox, arity int, tags []string, cfg Config, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		cfg:      cfg,
		bb:       bb,
		arity:    arity,
		observer: blackbox.NewNoOpObserver(),
		logger:   zerolog.Nop(),
		primeIdx: -1,
	}
	for i, tag := range tags {
		ropts := []ratreconst.Option{ratreconst.WithSafeInterpolation(cfg.SafeInterpolation)}
		if cfg.RankRetryBudget > 0 {
			ropts = append(ropts, ratreconst.WithRankRetryBudget(cfg.RankRetryBudget))
		}
		r.functions = append(r.functions, &registeredFunc{tag: tag, outputIdx: i, rec: ratreconst.New(tag, arity, ropts...)})
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(randSeed(), randSeed()))
	}
	if r.store != nil {
		if err := r.resumeFrom(r.store); err != nil {
			r.logger.Warn().Err(err).Msg("resume from checkpoint failed, starting fresh")
		}
	}
	return r
}

// resumeFrom loads whatever a prior run left behind: the shared prime
// rotation position, and any function whose result was already
// checkpointed as converged. A resumed function that had not yet
// converged is left untouched here — advancePrime restarts it at
// GlobalState.PrimeIdx+1 along with every other in-progress function.
func (r *Reconstructor) resumeFrom(s *persist.Store) error {
	gs, ok, err := s.ReadGlobalState()
	if err != nil {
		return err
	}
	if ok {
		r.primeIdx = gs.PrimeIdx
	}
	for _, f := range r.functions {
		fs, ok, err := s.ReadFunctionState(f.tag)
		if err != nil {
			return fmt.Errorf("reconstruct: %s: %w", f.tag, err)
		}
		if !ok {
			continue
		}
		num, err := persist.DecodePolynomial(r.arity, fs.Num)
		if err != nil {
			return fmt.Errorf("reconstruct: %s: numerator: %w", f.tag, err)
		}
		den, err := persist.DecodePolynomial(r.arity, fs.Den)
		if err != nil {
			return fmt.Errorf("reconstruct: %s: denominator: %w", f.tag, err)
		}
		f.rec.AdoptResult(num, den)
		r.logger.Info().Str("tag", f.tag).Msg("resumed converged function from checkpoint")
	}
	return nil
}

// checkpoint persists the shared prime position and every converged
// function's result. It is called after each completed prime round, so a
// crash loses at most one round's probes per still-open function.
func (r *Reconstructor) checkpoint() error {
	if err := r.store.WriteGlobalState(persist.GlobalState{PrimeIdx: r.primeIdx}); err != nil {
		return err
	}
	for _, f := range r.functions {
		num, den, ok := f.rec.GetResult()
		if !ok {
			continue
		}
		fs := persist.FunctionState{
			Tag:   f.tag,
			Arity: r.arity,
			Num:   persist.EncodePolynomial(num),
			Den:   persist.EncodePolynomial(den),
		}
		if err := r.store.WriteFunctionState(fs); err != nil {
			return fmt.Errorf("reconstruct: %s: %w", f.tag, err)
		}
	}
	return nil
}

// randSeed draws a seed from the runtime scheduler's own entropy rather
// than an unseeded, reproducible default; not cryptographic, but anchor
// and shift points only need to avoid unlucky algebraic coincidences; no
// example repo in the corpus uses a randomness library for this, so this
// stays on math/rand/v2 rather than reaching for an unneeded dependency.
func randSeed() uint64 {
	var b [8]byte
	for i := range b {
		b[i] = byte(rand.IntN(256))
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// Run drives every function to completion or failure, dispatching probes
// through a pool.Pool one prime round at a time.
func (r *Reconstructor) Run(ctx context.Context) ([]FunctionResult, error) {
	for {
		if r.allDone() {
			break
		}
		if r.metrics != nil {
			r.metrics.ActiveFunctions.Set(float64(r.countActive()))
		}
		if err := r.advancePrime(); err != nil {
			return r.collectResults(), err
		}
		roundCtx := ctx
		var span trace.Span
		if r.metrics != nil {
			roundCtx, span = r.metrics.StartSpan(ctx, "reconstruct.prime_round")
		}
		err := r.runPrimeRound(roundCtx)
		if span != nil {
			span.End()
		}
		if err != nil {
			return r.collectResults(), err
		}
		if r.store != nil {
			if err := r.checkpoint(); err != nil {
				r.logger.Warn().Err(err).Msg("checkpoint failed")
			}
		}
	}
	if r.metrics != nil {
		r.metrics.ActiveFunctions.Set(0)
	}
	return r.collectResults(), nil
}

func (r *Reconstructor) countActive() int {
	n := 0
	for _, f := range r.functions {
		if !f.rec.IsDone() {
			n++
		}
	}
	return n
}

func (r *Reconstructor) allDone() bool {
	for _, f := range r.functions {
		if !f.rec.IsDone() {
			return false
		}
	}
	return true
}

// advancePrime picks the next unused prime, draws a fresh anchor base and
// shift, notifies the black box, and re-arms every function that is
// either brand new or has requested a fresh prime.
func (r *Reconstructor) advancePrime() error {
	r.primeIdx++
	if r.primeIdx >= r.cfg.MaxPrimes || r.primeIdx >= len(field.Primes) {
		return fmt.Errorf("reconstruct: exhausted prime budget (%d primes) before every function converged", r.cfg.MaxPrimes)
	}
	r.fld = field.New(field.Primes[r.primeIdx])
	r.anchorBase = r.randomNonzeroVector(r.arity - 1)
	r.shift = r.randomVector(r.arity)
	if r.cfg.ShiftScan {
		// With ShiftScan set, the random shift is drawn a second time;
		// no candidate shift vectors are scanned, and the prime still
		// advances every round as without ShiftScan.
		r.shift = r.randomVector(r.arity)
	}
	r.bb.PrimeChanged(r.fld)
	if r.metrics != nil {
		r.metrics.PrimesConsumed.Inc()
	}

	for _, f := range r.functions {
		if f.rec.IsDone() {
			continue
		}
		f.rec.AdvancePrime(r.fld, r.anchorBase, r.shift)
	}
	r.logger.Debug().Uint64("prime", r.fld.Prime()).Int("prime_index", r.primeIdx).Msg("advanced prime")
	return nil
}

func (r *Reconstructor) randomVector(n int) []field.Elem {
	out := make([]field.Elem, n)
	for i := range out {
		out[i] = field.FromUint64(r.fld, r.rng.Uint64())
	}
	return out
}

func (r *Reconstructor) randomNonzeroVector(n int) []field.Elem {
	out := make([]field.Elem, n)
	for i := range out {
		e := field.FromUint64(r.fld, r.rng.Uint64())
		for e.IsZero() {
			e = field.FromUint64(r.fld, r.rng.Uint64())
		}
		out[i] = e
	}
	return out
}

func (r *Reconstructor) collectResults() []FunctionResult {
	out := make([]FunctionResult, len(r.functions))
	for i, f := range r.functions {
		res := FunctionResult{Tag: f.tag}
		if num, den, ok := f.rec.GetResult(); ok {
			res.Num, res.Den = num, den
		}
		if numFF, denFF, ok := f.rec.GetResultFF(); ok {
			res.NumFF, res.DenFF = numFF, denFF
		}
		if !f.rec.IsDone() {
			res.Err = fmt.Errorf("reconstruct: %s: did not converge", f.tag)
		}
		out[i] = res
	}
	return out
}
