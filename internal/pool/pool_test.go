package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agbru/firefly/internal/field"
)

var testField = field.New(2147483647)

type doublingBox struct{}

func (doublingBox) Evaluate(point []field.Elem, threadID int) ([]field.Elem, error) {
	return []field.Elem{point[0].Add(point[0])}, nil
}
func (doublingBox) PrimeChanged(field.Field) {}

type bunchedBox struct{ calls int }

func (b *bunchedBox) Evaluate(point []field.Elem, threadID int) ([]field.Elem, error) {
	panic("Evaluate should not be called when EvaluateBunch is available")
}
func (b *bunchedBox) PrimeChanged(field.Field) {}
func (b *bunchedBox) EvaluateBunch(points [][]field.Elem, threadID int) ([][]field.Elem, error) {
	b.calls++
	out := make([][]field.Elem, len(points))
	for i, p := range points {
		out[i] = []field.Elem{p[0].Add(p[0])}
	}
	return out, nil
}

type failingBox struct{}

func (failingBox) Evaluate(point []field.Elem, threadID int) ([]field.Elem, error) {
	return nil, errors.New("boom")
}
func (failingBox) PrimeChanged(field.Field) {}

func TestPoolEvaluatesAllSubmittedJobs(t *testing.T) {
	t.Parallel()
	p, err := New(context.Background(), doublingBox{}, 4, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()

	const n = 50
	for i := 0; i < n; i++ {
		p.Submit(Job{Point: []field.Elem{field.FromUint64(testField, uint64(i))}, Meta: i})
	}
	p.Finish()

	got := make(map[int]uint64)
	for r := range p.Results() {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		got[r.Job.Meta.(int)] = r.Values[0].Uint64()
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(got) != n {
		t.Fatalf("got %d results, want %d", len(got), n)
	}
	for i := 0; i < n; i++ {
		if want := uint64(2 * i); got[i] != want {
			t.Errorf("job %d = %d, want %d", i, got[i], want)
		}
	}
}

func TestPoolPrefersEvaluateBunch(t *testing.T) {
	t.Parallel()
	bb := &bunchedBox{}
	p, err := New(context.Background(), bb, 1, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()

	for i := 0; i < 8; i++ {
		p.Submit(Job{Point: []field.Elem{field.FromUint64(testField, uint64(i))}})
	}
	p.Finish()
	for range p.Results() {
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if bb.calls != 1 {
		t.Errorf("EvaluateBunch called %d times, want 1", bb.calls)
	}
}

func TestPoolPropagatesEvaluateError(t *testing.T) {
	t.Parallel()
	p, err := New(context.Background(), failingBox{}, 2, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()
	p.Submit(Job{Point: []field.Elem{field.Zero(testField)}})

	drained := make(chan struct{})
	go func() {
		for range p.Results() {
		}
		close(drained)
	}()

	if err := p.Wait(); err == nil {
		t.Error("expected an error from Wait")
	}
	<-drained
}

func TestKillAllStopsWorkersPromptly(t *testing.T) {
	t.Parallel()
	p, err := New(context.Background(), doublingBox{}, 2, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()
	p.KillAll()

	done := make(chan error, 1)
	go func() {
		for range p.Results() {
		}
		done <- p.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after KillAll")
	}
}

func TestInvalidBunchSizeRejected(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), doublingBox{}, 1, 3); err == nil {
		t.Error("expected error for bunch size not in AllowedBunchSizes")
	}
}
