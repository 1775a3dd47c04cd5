package config

import (
	"io"
	"os"
	"testing"
)

func TestParseConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		t.Parallel()
		cfg, err := ParseConfig("ff_insert", []string{"input.txt"}, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Workers != DefaultWorkers {
			t.Errorf("Expected default Workers %d, got %d", DefaultWorkers, cfg.Workers)
		}
		if cfg.BunchSize != DefaultBunchSize {
			t.Errorf("Expected default BunchSize %d, got %d", DefaultBunchSize, cfg.BunchSize)
		}
		if cfg.RankRetryBudget != DefaultRankRetryBudget {
			t.Errorf("Expected default RankRetryBudget %d, got %d", DefaultRankRetryBudget, cfg.RankRetryBudget)
		}
		if cfg.Input != "input.txt" {
			t.Errorf("Expected Input 'input.txt', got %q", cfg.Input)
		}
	})

	t.Run("ValidFlags", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"-p", "8",
			"-bs", "16",
			"-fs",
			"-s",
			"input.txt",
		}
		cfg, err := ParseConfig("ff_insert", args, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Workers != 8 {
			t.Errorf("Expected Workers 8, got %d", cfg.Workers)
		}
		if cfg.BunchSize != 16 {
			t.Errorf("Expected BunchSize 16, got %d", cfg.BunchSize)
		}
		if !cfg.FactorScan {
			t.Error("Expected FactorScan true")
		}
		if !cfg.Save {
			t.Error("Expected Save true")
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		env := map[string]string{
			"FIREFLY_WORKERS":    "4",
			"FIREFLY_BUNCH_SIZE": "32",
			"FIREFLY_SAVE":       "true",
			"FIREFLY_QUIET":      "true",
		}
		for k, v := range env {
			os.Setenv(k, v)
		}
		defer func() {
			for k := range env {
				os.Unsetenv(k)
			}
		}()

		cfg, err := ParseConfig("ff_insert", []string{"input.txt"}, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Workers != 4 {
			t.Errorf("Expected Workers 4 from env, got %d", cfg.Workers)
		}
		if cfg.BunchSize != 32 {
			t.Errorf("Expected BunchSize 32 from env, got %d", cfg.BunchSize)
		}
		if !cfg.Save {
			t.Error("Expected Save true from env")
		}
		if !cfg.Quiet {
			t.Error("Expected Quiet true from env")
		}
	})

	t.Run("FlagPrecedenceOverEnv", func(t *testing.T) {
		os.Setenv("FIREFLY_WORKERS", "4")
		defer os.Unsetenv("FIREFLY_WORKERS")

		cfg, err := ParseConfig("ff_insert", []string{"-p", "12", "input.txt"}, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Workers != 12 {
			t.Errorf("Expected Workers 12 from flag, got %d", cfg.Workers)
		}
	})

	t.Run("InvalidFlags", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("ff_insert", []string{"-unknown", "input.txt"}, io.Discard)
		if err == nil {
			t.Error("Expected error for unknown flag")
		}
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("ff_insert", []string{"-bs", "3", "input.txt"}, io.Discard)
		if err == nil {
			t.Error("Expected error for non-power-of-two bunch size")
		}
	})

	t.Run("MissingInput", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("ff_insert", []string{}, io.Discard)
		if err == nil {
			t.Error("Expected error for missing input argument")
		}
	})

	t.Run("MutuallyExclusiveFactorScanFlags", func(t *testing.T) {
		t.Parallel()
		_, err := ParseConfig("ff_insert", []string{"-fs", "-nfs", "input.txt"}, io.Discard)
		if err == nil {
			t.Error("Expected error for -fs combined with -nfs")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() AppConfig {
		return AppConfig{
			Workers:         1,
			BunchSize:       1,
			RankRetryBudget: 4,
			MaxPrimes:       300,
			Input:           "input.txt",
		}
	}

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("Unexpected validation error: %v", err)
		}
	})

	t.Run("InvalidWorkers", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.Workers = 0
		if err := c.Validate(); err == nil {
			t.Error("Expected error for zero workers")
		}
	})

	t.Run("InvalidBunchSize", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.BunchSize = 3
		if err := c.Validate(); err == nil {
			t.Error("Expected error for non-power-of-two bunch size")
		}
	})

	t.Run("NegativeRankRetryBudget", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.RankRetryBudget = -1
		if err := c.Validate(); err == nil {
			t.Error("Expected error for negative rank retry budget")
		}
	})

	t.Run("MaxPrimesOutOfRange", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.MaxPrimes = 301
		if err := c.Validate(); err == nil {
			t.Error("Expected error for max-primes above table size")
		}
	})

	t.Run("MissingInput", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.Input = ""
		if err := c.Validate(); err == nil {
			t.Error("Expected error for missing input")
		}
	})

	t.Run("MergeWithoutInput", func(t *testing.T) {
		t.Parallel()
		c := valid()
		c.Input = ""
		c.Merge = true
		if err := c.Validate(); err == nil {
			t.Error("Expected error for --merge with no directory argument")
		}
	})
}

func TestEnvHelpers(t *testing.T) {
	prefix := EnvPrefix

	t.Run("getEnvString", func(t *testing.T) {
		key := "TEST_STRING"
		os.Setenv(prefix+key, "value")
		defer os.Unsetenv(prefix + key)
		if val := getEnvString(key, "default"); val != "value" {
			t.Errorf("Expected 'value', got '%s'", val)
		}
		if val := getEnvString("NONEXISTENT", "default"); val != "default" {
			t.Errorf("Expected 'default', got '%s'", val)
		}
	})

	t.Run("getEnvInt", func(t *testing.T) {
		key := "TEST_INT"
		os.Setenv(prefix+key, "-123")
		defer os.Unsetenv(prefix + key)
		if val := getEnvInt(key, 0); val != -123 {
			t.Errorf("Expected -123, got %d", val)
		}
	})

	t.Run("getEnvBool", func(t *testing.T) {
		key := "TEST_BOOL"
		os.Setenv(prefix+key, "true")
		defer os.Unsetenv(prefix + key)
		if val := getEnvBool(key, false); !val {
			t.Error("Expected true")
		}

		os.Setenv(prefix+key, "0")
		if val := getEnvBool(key, true); val {
			t.Error("Expected false for '0'")
		}

		os.Setenv(prefix+key, "invalid")
		if val := getEnvBool(key, true); !val {
			t.Error("Expected default true for invalid input")
		}
	})
}
