// Package config provides configuration management for ff_insert and
// ff_merge. This file contains environment variable utilities for
// configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// getEnvString returns the value of the environment variable with the given
// key (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given
// key (prefixed with EnvPrefix) parsed as bool, or the default value if not
// set. Accepts "true", "1", "yes" as true; "false", "0", "no" as false
// (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line. This
// is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the
// configuration for any flags that were not explicitly set on the command
// line. This implements the priority: CLI flags > environment variables >
// defaults.
//
// Supported environment variables:
//   - FIREFLY_WORKERS: worker pool size (int)
//   - FIREFLY_BUNCH_SIZE: black-box evaluation bunch size (int)
//   - FIREFLY_FACTOR_SCAN, FIREFLY_NO_FACTOR_SCAN: factor scan toggles (bool)
//   - FIREFLY_NO_INTERPOLATION: skip interpolation (bool)
//   - FIREFLY_SAVE: enable checkpointing (bool)
//   - FIREFLY_SHIFT_SCAN: enable shift scan (bool)
//   - FIREFLY_SAFE: disable sparse-shift assumptions (bool)
//   - FIREFLY_RANK_RETRY_BUDGET: PolyReconst anchor-retry budget (int)
//   - FIREFLY_MAX_PRIMES: prime consumption cap (int)
//   - FIREFLY_CONFIG_DIR, FIREFLY_STATE_DIR: paths (string)
//   - FIREFLY_QUIET, FIREFLY_NO_COLOR, FIREFLY_JSON: output toggles (bool)
//   - FIREFLY_METRICS_ADDR: metrics/health listen address (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "p") && !isFlagSet(fs, "parallel") {
		config.Workers = getEnvInt("WORKERS", config.Workers)
	}
	if !isFlagSet(fs, "bs") && !isFlagSet(fs, "bunchsize") {
		config.BunchSize = getEnvInt("BUNCH_SIZE", config.BunchSize)
	}
	if !isFlagSet(fs, "rank-retry-budget") {
		config.RankRetryBudget = getEnvInt("RANK_RETRY_BUDGET", config.RankRetryBudget)
	}
	if !isFlagSet(fs, "max-primes") {
		config.MaxPrimes = getEnvInt("MAX_PRIMES", config.MaxPrimes)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "config-dir") {
		config.ConfigDir = getEnvString("CONFIG_DIR", config.ConfigDir)
	}
	if !isFlagSet(fs, "state-dir") {
		config.StateDir = getEnvString("STATE_DIR", config.StateDir)
	}
	if !isFlagSet(fs, "metrics-addr") {
		config.MetricsAddr = getEnvString("METRICS_ADDR", config.MetricsAddr)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "fs") && !isFlagSet(fs, "factorscan") {
		config.FactorScan = getEnvBool("FACTOR_SCAN", config.FactorScan)
	}
	if !isFlagSet(fs, "nfs") && !isFlagSet(fs, "nofactorscan") {
		config.NoFactorScan = getEnvBool("NO_FACTOR_SCAN", config.NoFactorScan)
	}
	if !isFlagSet(fs, "ni") && !isFlagSet(fs, "nointerpolation") {
		config.NoInterpolation = getEnvBool("NO_INTERPOLATION", config.NoInterpolation)
	}
	if !isFlagSet(fs, "s") && !isFlagSet(fs, "save") {
		config.Save = getEnvBool("SAVE", config.Save)
	}
	if !isFlagSet(fs, "shift-scan") {
		config.ShiftScan = getEnvBool("SHIFT_SCAN", config.ShiftScan)
	}
	if !isFlagSet(fs, "safe") {
		config.SafeInterpolation = getEnvBool("SAFE", config.SafeInterpolation)
	}
	if !isFlagSet(fs, "q") && !isFlagSet(fs, "quiet") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
}
