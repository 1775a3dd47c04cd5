package reconstruct

import (
	"context"
	"fmt"

	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/pool"
	"github.com/agbru/firefly/internal/poly"
	"github.com/agbru/firefly/internal/ratreconst"
)

// jobKind distinguishes an ordinary interpolation probe from the single
// black-box agreement probe TestGuess needs.
type jobKind int

const (
	kindInterpolate jobKind = iota
	kindTestGuess
)

type jobMeta struct {
	fn   *registeredFunc
	kind jobKind
	t    field.Elem
	zi   ratreconst.ZiOrder
	pt   []field.Elem
}

// runPrimeRound drives every not-yet-done function through the current
// prime's interpolation (and, for functions that reach it, the agreement
// test) until each either finishes, requests a new prime, or the pool
// reports a fatal black-box error.
func (r *Reconstructor) runPrimeRound(ctx context.Context) error {
	p, err := pool.New(ctx, r.bb, r.cfg.Workers, r.cfg.BunchSize)
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	p.Start()

	tCounters := make(map[string]uint64) // "tag|ziKey" -> next unused scan parameter
	outstanding := make(map[string]int)  // "tag|ziKey" -> jobs submitted but not yet fed
	testPending := make(map[string]bool) // tag -> a TestGuess probe is already in flight

	active := func() []*registeredFunc {
		var out []*registeredFunc
		for _, f := range r.functions {
			if !f.rec.IsDone() && !f.rec.NeedsNewPrime() {
				out = append(out, f)
			}
		}
		return out
	}

	for _, f := range active() {
		r.topUp(p, f, tCounters, outstanding, testPending)
	}

	pending := len(active())
	for pending > 0 {
		res, ok := <-p.Results()
		if !ok {
			break
		}
		meta := res.Job.Meta.(jobMeta)
		if meta.kind == kindInterpolate {
			outstanding[meta.fn.tag+"|"+meta.zi.Key()]--
		} else {
			testPending[meta.fn.tag] = false
		}
		if err := r.handleResult(meta, res); err != nil {
			p.KillAll()
			_ = p.Wait()
			return err
		}
		if r.metrics != nil {
			r.metrics.PoolQueueDepth.Set(float64(p.QueueLen()))
		}
		r.observer.Update(blackbox.ProgressUpdate{
			FunctionTag:  meta.fn.tag,
			Phase:        meta.fn.rec.Status(),
			PrimeCounter: meta.fn.rec.PrimeCounter(),
		})

		still := active()
		pending = 0
		for _, f := range still {
			r.topUp(p, f, tCounters, outstanding, testPending)
			pending++
		}
	}

	p.Finish()
	return p.Wait()
}

// topUp submits enough jobs to satisfy f's current GetZiOrders/TestGuess
// request beyond what is already outstanding (submitted but not yet fed
// back through Feed/Interpolate); GetNumEqn reports the total still
// needed, not the incremental amount, so without subtracting outstanding
// every drained result would re-trigger a full resubmission.
func (r *Reconstructor) topUp(p *pool.Pool, f *registeredFunc, tCounters map[string]uint64, outstanding map[string]int, testPending map[string]bool) {
	if f.rec.Phase() == ratreconst.PhaseRationalTest {
		if testPending[f.tag] {
			return
		}
		testZi := allOnesTuple(r.arity - 1)
		pt := f.rec.Point(r.randomNonzeroVector(1)[0], testZi)
		testPending[f.tag] = true
		p.Submit(pool.Job{Point: pt, Meta: jobMeta{fn: f, kind: kindTestGuess, pt: pt}})
		return
	}

	for _, req := range f.rec.GetZiOrders() {
		key := f.tag + "|" + req.Order.Key()
		toSubmit := req.Count - outstanding[key]
		if toSubmit <= 0 {
			continue
		}
		next := tCounters[key]
		for i := 0; i < toSubmit; i++ {
			next++
			t := field.FromUint64(r.fld, next)
			pt := f.rec.Point(t, req.Order)
			p.Submit(pool.Job{Point: pt, Meta: jobMeta{fn: f, kind: kindInterpolate, t: t, zi: req.Order}})
			if r.metrics != nil {
				r.metrics.ProbesDispatched.Inc()
			}
		}
		tCounters[key] = next
		outstanding[key] += toSubmit
	}
}

// allOnesTuple builds a throwaway zi_order for TestGuess's probe point:
// any point works for the agreement test, so the primary (all-ones) line
// direction is reused rather than inventing a new one.
func allOnesTuple(n int) ratreconst.ZiOrder {
	z := make(poly.ExponentTuple, n)
	for i := range z {
		z[i] = 1
	}
	return z
}

func (r *Reconstructor) handleResult(meta jobMeta, res pool.Result) error {
	if res.Err != nil {
		if r.metrics != nil {
			r.metrics.ProbesFailed.Inc()
		}
		return fmt.Errorf("reconstruct: %s: black box: %w", meta.fn.tag, res.Err)
	}
	value := res.Values[meta.fn.outputIdx]
	switch meta.kind {
	case kindTestGuess:
		return meta.fn.rec.TestGuess(meta.pt, value)
	default:
		if err := meta.fn.rec.Feed(meta.t, value, meta.zi, meta.fn.rec.PrimeCounter()); err != nil {
			return err
		}
		return meta.fn.rec.Interpolate()
	}
}
