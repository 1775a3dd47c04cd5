package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupJSONOutputIsLineDelimitedJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, false, true, true)
	log.Info("prime advanced", Int("prime_counter", 3), Uint64("prime", 2305843009213693951))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", buf.String(), err)
	}
	if decoded["message"] != "prime advanced" {
		t.Errorf("message = %v, want %q", decoded["message"], "prime advanced")
	}
}

func TestSetupQuietSuppressesInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, true, true, true)
	log.Info("this should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output at Warn level for an Info message, got %q", buf.String())
	}
}

func TestSetupConsoleOutputIsHumanReadable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Setup(&buf, false, true, false)
	log.Error("inconsistent system", nil, String("degree", "3"))
	if !strings.Contains(buf.String(), "inconsistent system") {
		t.Errorf("expected console output to contain the message, got %q", buf.String())
	}
}
