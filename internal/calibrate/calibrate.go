// Package calibrate estimates a good worker count and bunch size for a
// black box before a reconstruction run starts, by timing a handful of
// short trial batches and keeping whichever setting was fastest.
// Adapted from internal/calibration's short-trial-then-pick-best runner
// (runner.go) and its disk-cached machine profile (profile.go),
// repurposed from CPU-count-based Fibonacci algorithm thresholds to
// black-box-latency-based worker/bunch settings.
package calibrate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/config"
	"github.com/agbru/firefly/internal/field"
	"github.com/agbru/firefly/internal/pool"
)

// ProfileVersion guards against loading a profile written by an
// incompatible earlier version of this package.
const ProfileVersion = 1

// Profile is a cached calibration result, keyed to the machine it was
// measured on so a profile from a different host is never trusted.
type Profile struct {
	ProfileVersion int       `json:"profile_version"`
	NumCPU         int       `json:"num_cpu"`
	GOARCH         string    `json:"goarch"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	Workers   int `json:"workers"`
	BunchSize int `json:"bunch_size"`
}

// matchesHost reports whether p was measured on hardware compatible with
// the current process.
func (p *Profile) matchesHost() bool {
	return p.ProfileVersion == ProfileVersion && p.NumCPU == runtime.NumCPU() && p.GOARCH == runtime.GOARCH
}

// DefaultProfilePath returns the per-user cache path calibration profiles
// are read from and written to by default.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".firefly_calibration.json"
	}
	return filepath.Join(home, ".firefly_calibration.json")
}

// LoadProfile reads a cached profile from path, returning ok=false if the
// file is absent, unreadable, or measured on different hardware.
func LoadProfile(path string) (Profile, bool) {
	var p Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, false
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false
	}
	if !p.matchesHost() {
		return p, false
	}
	return p, true
}

// SaveProfile writes p to path.
func SaveProfile(path string, p Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// candidateWorkers and candidateBunchSizes bound the trial search space;
// a full sweep of every combination would itself take too long, so only
// a handful of points near the CPU count are tried.
func candidateWorkers() []int {
	n := runtime.NumCPU()
	cands := []int{1, n}
	if n > 2 {
		cands = append(cands, n/2)
	}
	if n < 64 {
		cands = append(cands, n*2)
	}
	return dedupPositive(cands)
}

func candidateBunchSizes() []int {
	var out []int
	for _, b := range config.AllowedBunchSizes {
		if b <= 32 {
			out = append(out, b)
		}
	}
	return out
}

func dedupPositive(xs []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, x := range xs {
		if x > 0 && !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// probePoint is a fixed, cheap probe used purely to measure black-box
// round-trip latency; its value is discarded.
func probePoint(fld field.Field, arity int) []field.Elem {
	pt := make([]field.Elem, arity)
	for i := range pt {
		pt[i] = field.FromUint64(fld, uint64(i+1))
	}
	return pt
}

// Run times a handful of (workers, bunch size) combinations against bb
// using trialBatches probe batches of trialSize points each, and returns
// whichever combination completed its batches fastest.
func Run(ctx context.Context, bb blackbox.BlackBox, fld field.Field, arity int, trialBatches, trialSize int) (Profile, error) {
	best := Profile{ProfileVersion: ProfileVersion, NumCPU: runtime.NumCPU(), GOARCH: runtime.GOARCH, Workers: 1, BunchSize: 1}
	bestDur := time.Duration(1<<63 - 1)

	for _, workers := range candidateWorkers() {
		for _, bunch := range candidateBunchSizes() {
			dur, err := trial(ctx, bb, fld, arity, workers, bunch, trialBatches, trialSize)
			if err != nil {
				continue
			}
			if dur < bestDur {
				bestDur = dur
				best.Workers, best.BunchSize = workers, bunch
			}
		}
	}
	best.CalibratedAt = calibratedAt()
	return best, nil
}

// calibratedAt returns the timestamp recorded in a freshly measured
// Profile; it simply wraps time.Now.
func calibratedAt() time.Time { return time.Now() }

func trial(ctx context.Context, bb blackbox.BlackBox, fld field.Field, arity, workers, bunch, batches, size int) (time.Duration, error) {
	p, err := pool.New(ctx, bb, workers, bunch)
	if err != nil {
		return 0, err
	}
	p.Start()

	start := time.Now()
	for b := 0; b < batches; b++ {
		for i := 0; i < size; i++ {
			p.Submit(pool.Job{Point: probePoint(fld, arity)})
		}
	}
	p.Finish()
	total := batches * size
	seen := 0
	for res := range p.Results() {
		seen++
		if res.Err != nil {
			return 0, res.Err
		}
		if seen == total {
			break
		}
	}
	dur := time.Since(start)
	if err := p.Wait(); err != nil {
		return 0, err
	}
	return dur, nil
}
