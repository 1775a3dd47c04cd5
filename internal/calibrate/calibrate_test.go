package calibrate

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/agbru/firefly/internal/field"
)

func TestProfileMatchesHost(t *testing.T) {
	p := Profile{ProfileVersion: ProfileVersion, NumCPU: runtime.NumCPU(), GOARCH: runtime.GOARCH}
	if !p.matchesHost() {
		t.Fatalf("expected profile measured on this host to match")
	}

	stale := p
	stale.ProfileVersion = ProfileVersion + 1
	if stale.matchesHost() {
		t.Fatalf("expected version mismatch to reject the profile")
	}

	wrongCPU := p
	wrongCPU.NumCPU = p.NumCPU + 1
	if wrongCPU.matchesHost() {
		t.Fatalf("expected NumCPU mismatch to reject the profile")
	}

	wrongArch := p
	wrongArch.GOARCH = p.GOARCH + "x"
	if wrongArch.matchesHost() {
		t.Fatalf("expected GOARCH mismatch to reject the profile")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, ok := LoadProfile(filepath.Join(dir, "absent.json")); ok {
		t.Fatalf("expected LoadProfile to report ok=false for a missing file")
	}
}

func TestSaveAndLoadProfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")

	want := Profile{
		ProfileVersion: ProfileVersion,
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		CalibratedAt:   time.Unix(1700000000, 0).UTC(),
		Workers:        4,
		BunchSize:      8,
	}
	if err := SaveProfile(path, want); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, ok := LoadProfile(path)
	if !ok {
		t.Fatalf("expected LoadProfile to succeed after SaveProfile")
	}
	if got.Workers != want.Workers || got.BunchSize != want.BunchSize {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if !got.CalibratedAt.Equal(want.CalibratedAt) {
		t.Fatalf("CalibratedAt mismatch: got %v, want %v", got.CalibratedAt, want.CalibratedAt)
	}
}

func TestLoadProfileRejectsForeignHost(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")

	foreign := Profile{
		ProfileVersion: ProfileVersion,
		NumCPU:         runtime.NumCPU() + 1,
		GOARCH:         runtime.GOARCH,
		Workers:        2,
		BunchSize:      4,
	}
	if err := SaveProfile(path, foreign); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if _, ok := LoadProfile(path); ok {
		t.Fatalf("expected a profile measured with a different NumCPU to be rejected")
	}
}

func TestCandidateWorkersAndBunchSizesArePositiveAndDeduped(t *testing.T) {
	workers := candidateWorkers()
	if len(workers) == 0 {
		t.Fatalf("expected at least one worker candidate")
	}
	seen := map[int]bool{}
	for _, w := range workers {
		if w <= 0 {
			t.Fatalf("candidate worker count must be positive, got %d", w)
		}
		if seen[w] {
			t.Fatalf("candidateWorkers returned a duplicate: %d", w)
		}
		seen[w] = true
	}

	bunches := candidateBunchSizes()
	if len(bunches) == 0 {
		t.Fatalf("expected at least one bunch size candidate")
	}
	for _, b := range bunches {
		if b > 32 {
			t.Fatalf("candidateBunchSizes should only try sizes <= 32, got %d", b)
		}
	}
}

func TestDedupPositive(t *testing.T) {
	got := dedupPositive([]int{3, -1, 3, 0, 2, 2, 5})
	want := []int{3, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("dedupPositive(%v) = %v, want %v", []int{3, -1, 3, 0, 2, 2, 5}, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupPositive mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

// constantBlackBox is a minimal BlackBox for timing trials: it always
// returns the same single output value, ignoring the probed point.
type constantBlackBox struct{}

func (constantBlackBox) Evaluate(point []field.Elem, threadID int) ([]field.Elem, error) {
	if len(point) == 0 {
		return nil, nil
	}
	return []field.Elem{point[0]}, nil
}

func (constantBlackBox) PrimeChanged(field.Field) {}

func TestRunPicksAFasterOrEqualCombination(t *testing.T) {
	fld := field.New(field.Primes[0])
	bb := constantBlackBox{}

	profile, err := Run(context.Background(), bb, fld, 1, 2, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if profile.Workers <= 0 || profile.BunchSize <= 0 {
		t.Fatalf("expected positive workers/bunch size, got %+v", profile)
	}
	if profile.ProfileVersion != ProfileVersion {
		t.Fatalf("expected ProfileVersion %d, got %d", ProfileVersion, profile.ProfileVersion)
	}
	if profile.CalibratedAt.IsZero() {
		t.Fatalf("expected CalibratedAt to be set")
	}
}
