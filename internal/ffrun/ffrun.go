// Package ffrun holds the lifecycle shared by ff_insert and ff_merge:
// parse config, build the reconstruction pipeline (or, in merge mode,
// stitch together a directory of checkpointed fragments), run it, and
// report an exit code. Split out from the CLI binaries themselves so
// ff_merge can reuse the wiring without duplicating it.
package ffrun

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/agbru/firefly/internal/apperrors"
	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/calibrate"
	"github.com/agbru/firefly/internal/cli"
	"github.com/agbru/firefly/internal/config"
	"github.com/agbru/firefly/internal/logging"
	"github.com/agbru/firefly/internal/metrics"
	"github.com/agbru/firefly/internal/persist"
	"github.com/agbru/firefly/internal/reconstruct"
	"github.com/agbru/firefly/internal/ui"
)

// Main is the shared entry point for both binaries. forceMerge is true
// for cmd/ff_merge, which behaves as if -m had been passed regardless of
// the actual flags given.
func Main(programName string, args []string, out, errOut *os.File, forceMerge bool) int {
	start := time.Now()

	cfg, err := config.ParseConfig(programName, args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	if forceMerge {
		cfg.Merge = true
	}

	ui.InitTheme(cfg.NoColor)
	log := logging.Setup(errOut, cfg.Quiet, cfg.NoColor, cfg.JSONOutput)

	if cfg.Merge {
		return runMerge(cfg, log, out)
	}

	exitCode, err := runInsert(cfg, log, out)
	if err != nil {
		log.Error("run failed", err)
	}
	log.Debug("done", logging.String("elapsed", time.Since(start).String()))
	return exitCode
}

// runInsert wires the formula black box, a cached calibration profile (if
// one exists for this host), the Reconstructor, checkpoint store, and
// progress display together and drives them to completion.
func runInsert(cfg config.AppConfig, log *logging.ZerologAdapter, out *os.File) (int, error) {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tags, exprs, vars, err := loadFunctionConfig(cfg.ConfigDir)
	if err != nil {
		return apperrors.ExitErrorConfig, err
	}
	if len(tags) == 0 {
		return apperrors.ExitErrorConfig, fmt.Errorf("no functions to reconstruct after applying skip_functions")
	}

	bb := blackbox.NewFormulaBlackBox(vars, exprs)
	arity := vars.Arity()

	var mtr *metrics.Metrics
	if cfg.MetricsAddr != "" {
		mtr = metrics.New()
		go serveMetrics(cfg.MetricsAddr, mtr, log)
	}

	if !cfg.Quiet {
		if prof, ok := calibrate.LoadProfile(calibrate.DefaultProfilePath()); ok {
			cfg.Workers, cfg.BunchSize = prof.Workers, prof.BunchSize
			log.Info("loaded cached calibration profile", logging.Int("workers", prof.Workers), logging.Int("bunch_size", prof.BunchSize))
		}
	}

	rcfg := reconstruct.Config{
		Workers:           cfg.Workers,
		BunchSize:         cfg.BunchSize,
		MaxPrimes:         cfg.MaxPrimes,
		SafeInterpolation: cfg.SafeInterpolation,
		FactorScan:        cfg.FactorScan,
		ShiftScan:         cfg.ShiftScan,
		RankRetryBudget:   cfg.RankRetryBudget,
	}

	observerCh := make(chan blackbox.ProgressUpdate, 64)
	opts := []reconstruct.Option{
		reconstruct.WithObserver(blackbox.NewChannelObserver(observerCh)),
		reconstruct.WithLogger(log.Raw()),
	}
	if mtr != nil {
		opts = append(opts, reconstruct.WithMetrics(mtr))
	}
	if cfg.Save {
		store, err := persist.Open(cfg.StateDir)
		if err != nil {
			return apperrors.ExitErrorResume, fmt.Errorf("opening checkpoint store: %w", err)
		}
		opts = append(opts, reconstruct.WithPersistence(store))
	}

	r := reconstruct.New(bb, arity, tags, rcfg, opts...)

	var wg sync.WaitGroup
	wg.Add(1)
	if !cfg.Quiet {
		go cli.DisplayProgress(&wg, observerCh, out)
	} else {
		go func() {
			defer wg.Done()
			for range observerCh {
			}
		}()
	}

	results, runErr := r.Run(ctx)
	close(observerCh)
	wg.Wait()

	cli.PrintSummary(out, results)
	for _, res := range results {
		cli.PrintFunction(out, res)
	}

	if runErr != nil {
		return apperrors.HandleFatal(runErr, time.Since(start), out, cliColorProvider{}), runErr
	}
	for _, res := range results {
		if res.Err != nil {
			return apperrors.ExitErrorInconsistent, res.Err
		}
	}
	return apperrors.ExitSuccess, nil
}

// runMerge combines a directory of per-tag result fragments (each written
// by a separate ff_insert -save run) into one merged output. Merging
// itself is a filesystem operation over persist.Store's checkpoint tree,
// not a reconstruction, so it never touches the black box.
func runMerge(cfg config.AppConfig, log *logging.ZerologAdapter, out *os.File) int {
	store, err := persist.Open(cfg.Input)
	if err != nil {
		log.Error("opening fragment directory", err)
		return apperrors.ExitErrorConfig
	}
	tags, err := listCheckpointedTags(cfg.Input)
	if err != nil {
		log.Error("listing checkpointed functions", err)
		return apperrors.ExitErrorResume
	}
	for _, tag := range tags {
		fs, ok, err := store.ReadFunctionState(tag)
		if err != nil {
			log.Error("reading checkpoint", err, logging.String("tag", tag))
			return apperrors.ExitErrorResume
		}
		if !ok {
			continue
		}
		num, err := persist.DecodePolynomial(fs.Arity, fs.Num)
		if err != nil {
			log.Error("decoding numerator", err, logging.String("tag", tag))
			return apperrors.ExitErrorResume
		}
		den, err := persist.DecodePolynomial(fs.Arity, fs.Den)
		if err != nil {
			log.Error("decoding denominator", err, logging.String("tag", tag))
			return apperrors.ExitErrorResume
		}
		cli.PrintFunction(out, reconstruct.FunctionResult{Tag: tag, Num: num, Den: den})
	}
	return apperrors.ExitSuccess
}

func listCheckpointedTags(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, "states"))
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".gz" {
			tags = append(tags, name[:len(name)-len(".gz")])
		}
	}
	return tags, nil
}

// loadFunctionConfig reads config/functions (tag = expression lines),
// config/vars, and config/skip_functions from dir.
func loadFunctionConfig(dir string) (tags []string, exprs []blackbox.Expr, vars blackbox.VariableConfig, err error) {
	varsFile, err := os.Open(filepath.Join(dir, "vars"))
	if err != nil {
		return nil, nil, blackbox.VariableConfig{}, fmt.Errorf("opening vars: %w", err)
	}
	defer varsFile.Close()
	vars, err = blackbox.ParseVariables(varsFile)
	if err != nil {
		return nil, nil, blackbox.VariableConfig{}, err
	}

	fnFile, err := os.Open(filepath.Join(dir, "functions"))
	if err != nil {
		return nil, nil, blackbox.VariableConfig{}, fmt.Errorf("opening functions: %w", err)
	}
	defer fnFile.Close()
	tags, exprs, err = blackbox.ParseFunctionFormulas(fnFile)
	if err != nil {
		return nil, nil, blackbox.VariableConfig{}, err
	}

	skip := map[string]bool{}
	if skipFile, serr := os.Open(filepath.Join(dir, "skip_functions")); serr == nil {
		defer skipFile.Close()
		skip, err = blackbox.ParseSkipFunctions(skipFile)
		if err != nil {
			return nil, nil, blackbox.VariableConfig{}, err
		}
	}
	if len(skip) > 0 {
		filteredTags := tags[:0]
		filteredExprs := exprs[:0]
		for i, tag := range tags {
			if !skip[tag] {
				filteredTags = append(filteredTags, tag)
				filteredExprs = append(filteredExprs, exprs[i])
			}
		}
		tags, exprs = filteredTags, filteredExprs
	}
	return tags, exprs, vars, nil
}

func serveMetrics(addr string, m *metrics.Metrics, log *logging.ZerologAdapter) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server exited", err, logging.String("addr", addr))
	}
}

// cliColorProvider adapts internal/cli's theme-driven colors to
// apperrors.ColorProvider.
type cliColorProvider struct{}

func (cliColorProvider) Yellow() string { return cli.ColorYellow() }
func (cliColorProvider) Reset() string  { return cli.ColorReset() }
