package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/field"
)

// AllowedBunchSizes mirrors config.AllowedBunchSizes; duplicated here
// (rather than imported) so this package has no dependency on
// internal/config, matching internal/densesolve's and internal/poly's
// existing standalone-package discipline.
var AllowedBunchSizes = []int{1, 2, 4, 8, 16, 32, 64, 128}

// Job is one probe point to evaluate, tagged with whatever identity the
// caller needs to route the result back to the right RatReconst.
type Job struct {
	Point []field.Elem
	Meta  any
}

// Result pairs a Job with its black-box outputs, or the error the
// evaluation failed with.
type Result struct {
	Job    Job
	Values []field.Elem
	Err    error
}

// Pool runs a fixed number of persistent worker goroutines, each with a
// stable thread ID (0..Workers-1) for the lifetime of the Pool, pulling
// bunches of Jobs off a shared Deque and evaluating them against a single
// BlackBox, which may keep per-thread scratch state keyed by that ID.
// Grounded on internal/orchestration/orchestrator.go's
// errgroup.WithContext fan-out, generalized from a fixed calculator list
// to an open-ended probe stream.
type Pool struct {
	bb        blackbox.BlackBox
	workers   int
	bunchSize int

	queue   *Deque
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	wake     chan struct{}
	draining atomic.Bool

	closeOnce sync.Once
}

// New returns a Pool bound to parent's lifetime; call Start to launch the
// workers and Wait to drain them. bunchSize must be a member of
// AllowedBunchSizes.
func New(parent context.Context, bb blackbox.BlackBox, workers, bunchSize int) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("pool: workers must be >= 1, got %d", workers)
	}
	if !isAllowedBunchSize(bunchSize) {
		return nil, fmt.Errorf("pool: bunch size %d not in %v", bunchSize, AllowedBunchSizes)
	}
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &Pool{
		bb:        bb,
		workers:   workers,
		bunchSize: bunchSize,
		queue:     NewDeque(),
		results:   make(chan Result, workers*bunchSize),
		ctx:       ctx,
		cancel:    cancel,
		g:         g,
		wake:      make(chan struct{}, workers),
	}, nil
}

func isAllowedBunchSize(n int) bool {
	for _, b := range AllowedBunchSizes {
		if b == n {
			return true
		}
	}
	return false
}

// Submit enqueues j for evaluation, at the tail (FIFO).
func (p *Pool) Submit(j Job) {
	p.queue.PushBack(j)
	p.poke()
}

// Reissue re-enqueues j ahead of everything already queued, for a probe a
// prior kill-all abandoned before it produced a result.
func (p *Pool) Reissue(j Job) {
	p.queue.PushFront(j)
	p.poke()
}

func (p *Pool) poke() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Results returns the channel Result values are published on. The caller
// must keep draining it until Wait returns, or workers will block trying
// to publish.
func (p *Pool) Results() <-chan Result { return p.results }

// Start launches the worker goroutines. It must be called once, before
// any Submit.
func (p *Pool) Start() {
	for id := 0; id < p.workers; id++ {
		threadID := id
		p.g.Go(func() error { return p.workerLoop(threadID) })
	}
}

func (p *Pool) workerLoop(threadID int) error {
	const idlePoll = 5 * time.Millisecond
	for {
		batch := p.queue.PopFrontBunch(p.bunchSize)
		if len(batch) == 0 {
			if p.draining.Load() && p.queue.Len() == 0 {
				return nil
			}
			select {
			case <-p.ctx.Done():
				return nil
			case <-p.wake:
				continue
			case <-time.After(idlePoll):
				continue
			}
		}
		if err := p.evaluateBatch(threadID, batch); err != nil {
			p.cancel()
			return err
		}
	}
}

func (p *Pool) evaluateBatch(threadID int, batch []Job) error {
	if len(batch) > 1 {
		if bunched, ok := p.bb.(blackbox.Bunched); ok {
			return p.evaluateBunched(threadID, batch, bunched)
		}
	}
	for _, j := range batch {
		values, err := p.bb.Evaluate(j.Point, threadID)
		if p.publish(Result{Job: j, Values: values, Err: err}); err != nil {
			return fmt.Errorf("pool: evaluate: %w", err)
		}
	}
	return nil
}

func (p *Pool) evaluateBunched(threadID int, batch []Job, bunched blackbox.Bunched) error {
	points := make([][]field.Elem, len(batch))
	for i, j := range batch {
		points[i] = j.Point
	}
	values, err := bunched.EvaluateBunch(points, threadID)
	if err != nil {
		for _, j := range batch {
			p.publish(Result{Job: j, Err: err})
		}
		return fmt.Errorf("pool: bunched evaluate: %w", err)
	}
	for i, j := range batch {
		p.publish(Result{Job: j, Values: values[i]})
	}
	return nil
}

// publish sends r on the results channel unless a kill-all has already
// been requested, in which case it is dropped rather than leaked onto a
// channel nobody may still be draining. It returns the evaluate error (if
// any) unchanged, purely so callers can chain it in an if-statement.
func (p *Pool) publish(r Result) error {
	select {
	case p.results <- r:
	case <-p.ctx.Done():
	}
	return r.Err
}

// KillAll cancels every in-flight and queued evaluation. Workers finish
// their current single Evaluate call (bunches are not interruptible
// mid-call) and then exit.
func (p *Pool) KillAll() {
	p.closeOnce.Do(p.cancel)
}

// Finish tells workers to exit once the queue drains naturally, rather
// than waiting indefinitely for more Submit calls. Use this instead of
// KillAll when every probe already queued should still be evaluated.
func (p *Pool) Finish() {
	p.draining.Store(true)
	for i := 0; i < p.workers; i++ {
		p.poke()
	}
}

// QueueLen reports how many jobs are waiting to be picked up by a worker.
func (p *Pool) QueueLen() int { return p.queue.Len() }

// Wait blocks until every worker has exited (either the queue is
// permanently closed via KillAll, or a worker returned a fatal error) and
// returns the first such error, if any. It closes the results channel
// before returning.
func (p *Pool) Wait() error {
	err := p.g.Wait()
	close(p.results)
	return err
}
