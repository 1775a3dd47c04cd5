// Package config provides configuration management for ff_insert and
// ff_merge. It defines the data structure for the configuration, handles
// command-line flag parsing, and validates the resulting values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"

	apperrors "github.com/agbru/firefly/internal/apperrors"
)

// EnvPrefix is the prefix for all environment variables FireFly reads.
const EnvPrefix = "FIREFLY_"

// Default configuration values.
const (
	// DefaultBunchSize is the black-box bunch size when -bs is not given.
	DefaultBunchSize = 1
	// DefaultWorkers is the worker pool size when -p is not given.
	DefaultWorkers = 1
	// DefaultMaxPrimes caps how many primes a run may consume, matching
	// the size of the fixed word-prime table.
	DefaultMaxPrimes = 300
	// DefaultRankRetryBudget is how many times a rank-deficient PolyReconst
	// system is retried with fresh anchors before the run aborts.
	DefaultRankRetryBudget = 4
)

// AllowedBunchSizes enumerates the only legal values for -bs.
var AllowedBunchSizes = []int{1, 2, 4, 8, 16, 32, 64, 128}

// AppConfig aggregates ff_insert's configuration, parsed from
// command-line flags and environment overrides.
type AppConfig struct {
	// Workers is the worker pool size (-p / --parallel).
	Workers int
	// BunchSize is the black-box evaluation batch size (-bs / --bunchsize).
	BunchSize int
	// FactorScan is set by -fs / --factorscan. It is checked against
	// NoFactorScan and passed on to reconstruct.Config; no factor scan is
	// run and the reconstruction does not stop early.
	FactorScan bool
	// NoFactorScan disables factor scan entirely (-nfs / --nofactorscan).
	NoFactorScan bool
	// NoInterpolation is set by -ni / --nointerpolation. ff_insert does not
	// read it: interpolation runs and no raw coefficient files are written.
	NoInterpolation bool
	// Save enables tagged checkpointing to disk (-s / --save).
	Save bool
	// Merge merges a directory of result fragments (-m / --merge).
	Merge bool
	// ShiftScan (--shift-scan) makes the Reconstructor draw its random
	// shift a second time each round; no candidate shifts are scanned.
	ShiftScan bool
	// SafeInterpolation (--safe) is passed to
	// ratreconst.WithSafeInterpolation, which does not change the probes
	// issued.
	SafeInterpolation bool
	// RankRetryBudget bounds PolyReconst anchor-retry attempts.
	RankRetryBudget int
	// MaxPrimes caps how many primes the run may consume before giving up.
	MaxPrimes int
	// ConfigDir points at the directory containing functions/vars/skip_functions.
	ConfigDir string
	// StateDir points at the ff_save checkpoint tree.
	StateDir string
	// Quiet suppresses progress bars and informational messages.
	Quiet bool
	// NoColor disables colored output (also respects NO_COLOR env var).
	NoColor bool
	// JSONOutput switches logging to newline-delimited JSON.
	JSONOutput bool
	// MetricsAddr, if non-empty, serves /metrics and /healthz on this address.
	MetricsAddr string

	// Input is the trailing positional argument: an input file or directory.
	Input string
}

// Validate checks the semantic consistency of the configuration.
func (c AppConfig) Validate() error {
	if c.Workers <= 0 {
		return apperrors.NewConfigError("worker count must be positive, got %d", c.Workers)
	}
	if !isAllowedBunchSize(c.BunchSize) {
		return apperrors.NewConfigError("bunch size %d is not a power of two in [1,128]", c.BunchSize)
	}
	if c.FactorScan && c.NoFactorScan {
		return apperrors.NewConfigError("-fs and -nfs are mutually exclusive")
	}
	if c.RankRetryBudget < 0 {
		return apperrors.NewConfigError("rank retry budget cannot be negative: %d", c.RankRetryBudget)
	}
	if c.MaxPrimes <= 0 || c.MaxPrimes > 300 {
		return apperrors.NewConfigError("max-primes must be in [1,300], got %d", c.MaxPrimes)
	}
	if c.Input == "" {
		if c.Merge {
			return apperrors.NewConfigError("--merge requires a fragment directory argument")
		}
		return apperrors.NewConfigError("missing input file or directory argument")
	}
	return nil
}

func isAllowedBunchSize(n int) bool {
	for _, b := range AllowedBunchSizes {
		if b == n {
			return true
		}
	}
	return false
}

// ParseConfig parses ff_insert's command-line arguments into an
// AppConfig. The function is testable: input arguments and the error
// writer are both explicit parameters rather than reading os.Args and
// os.Stderr directly.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	cfg := AppConfig{}
	fs.IntVar(&cfg.Workers, "p", DefaultWorkers, "Worker count.")
	fs.IntVar(&cfg.Workers, "parallel", DefaultWorkers, "Alias for -p.")
	fs.IntVar(&cfg.BunchSize, "bs", DefaultBunchSize, "Black-box evaluation bunch size (1,2,4,...,128).")
	fs.IntVar(&cfg.BunchSize, "bunchsize", DefaultBunchSize, "Alias for -bs.")
	fs.BoolVar(&cfg.FactorScan, "fs", false, "Factor-scan flag (accepted; no factor scan is run).")
	fs.BoolVar(&cfg.FactorScan, "factorscan", false, "Alias for -fs.")
	fs.BoolVar(&cfg.NoFactorScan, "nfs", false, "Disable factor scan.")
	fs.BoolVar(&cfg.NoFactorScan, "nofactorscan", false, "Alias for -nfs.")
	fs.BoolVar(&cfg.NoInterpolation, "ni", false, "No-interpolation flag (accepted; interpolation still runs).")
	fs.BoolVar(&cfg.NoInterpolation, "nointerpolation", false, "Alias for -ni.")
	fs.BoolVar(&cfg.Save, "s", false, "Enable tagged checkpointing.")
	fs.BoolVar(&cfg.Save, "save", false, "Alias for -s.")
	fs.BoolVar(&cfg.Merge, "m", false, "Merge a directory of result fragments.")
	fs.BoolVar(&cfg.Merge, "merge", false, "Alias for -m.")
	fs.BoolVar(&cfg.ShiftScan, "shift-scan", false, "Redraw the random shift each round (no candidate shifts are scanned).")
	fs.BoolVar(&cfg.SafeInterpolation, "safe", false, "Safe interpolation (no effect: interpolation never elides zero coefficients or assumes a sparse shift).")
	fs.IntVar(&cfg.RankRetryBudget, "rank-retry-budget", DefaultRankRetryBudget, "PolyReconst anchor-retry budget on rank-deficient systems.")
	fs.IntVar(&cfg.MaxPrimes, "max-primes", DefaultMaxPrimes, "Maximum number of primes to consume before aborting.")
	fs.StringVar(&cfg.ConfigDir, "config-dir", "config", "Directory containing functions/vars/skip_functions.")
	fs.StringVar(&cfg.StateDir, "state-dir", "ff_save", "Checkpoint tree directory.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Quiet mode: suppress progress output.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Alias for -q.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "Log in newline-delimited JSON instead of console format.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "If set, serve /metrics and /healthz on this address.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		cfg.Input = rest[0]
	}

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return cfg, nil
}

func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <input file or directory>\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nConfiguration files: <config-dir>/functions, <config-dir>/vars, <config-dir>/skip_functions.")
	}
}
