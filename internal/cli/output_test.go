package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/agbru/firefly/internal/bigrat"
	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/poly"
	"github.com/agbru/firefly/internal/reconstruct"
)

func TestDisplayProgressRendersLatestStatusPerFunction(t *testing.T) {
	ch := make(chan blackbox.ProgressUpdate, 4)
	ch <- blackbox.ProgressUpdate{FunctionTag: "f2", Phase: "UniThiele", PrimeCounter: 1}
	ch <- blackbox.ProgressUpdate{FunctionTag: "f1", Phase: "MultiNewton", PrimeCounter: 2}
	ch <- blackbox.ProgressUpdate{FunctionTag: "f1", Phase: "CRTLifting", PrimeCounter: 3}
	close(ch)

	var wg sync.WaitGroup
	wg.Add(1)
	var out bytes.Buffer
	DisplayProgress(&wg, ch, &out)
	wg.Wait()

	// The spinner itself writes control sequences we don't want to
	// depend on; what matters is that rendering didn't panic and that a
	// render actually happened, which renderStatusLine covers directly.
}

func TestRenderStatusLineSortsByTagAndShowsLatestState(t *testing.T) {
	statuses := map[string]*functionStatus{
		"b": {tag: "b", phase: "Done", primeCounter: 5},
		"a": {tag: "a", phase: "UniThiele", primeCounter: 1},
	}
	line := renderStatusLine(statuses)
	aIdx := strings.Index(line, "a[")
	bIdx := strings.Index(line, "b[")
	if aIdx == -1 || bIdx == -1 || aIdx > bIdx {
		t.Fatalf("expected tag a to render before tag b, got %q", line)
	}
	if !strings.Contains(line, "UniThiele") || !strings.Contains(line, "Done") {
		t.Fatalf("expected both phases present, got %q", line)
	}
}

func TestPrintSummarySuccessAndFailure(t *testing.T) {
	num := poly.NewPolynomial(1)
	num.Set(poly.ExponentTuple{0}, bigrat.RationalFromInt64(2))
	den := poly.NewPolynomial(1)
	den.Set(poly.ExponentTuple{0}, bigrat.RationalFromInt64(2))
	den.Set(poly.ExponentTuple{1}, bigrat.RationalFromInt64(7))

	results := []reconstruct.FunctionResult{
		{Tag: "ok_fn", Num: num, Den: den},
		{Tag: "bad_fn", Err: errors.New("exhausted prime budget")},
	}

	var out bytes.Buffer
	PrintSummary(&out, results)
	text := out.String()

	if !strings.Contains(text, "ok_fn") || !strings.Contains(text, "OK") {
		t.Fatalf("expected ok_fn marked OK, got %q", text)
	}
	if !strings.Contains(text, "bad_fn") || !strings.Contains(text, "FAILED") || !strings.Contains(text, "exhausted prime budget") {
		t.Fatalf("expected bad_fn marked FAILED with its error, got %q", text)
	}
	if !strings.Contains(text, "1 term(s)") || !strings.Contains(text, "2 term(s)") {
		t.Fatalf("expected term counts 1 and 2, got %q", text)
	}
}

func TestPrintFunctionRendersNOverD(t *testing.T) {
	num := poly.NewPolynomial(1)
	num.Set(poly.ExponentTuple{0}, bigrat.RationalFromInt64(2))
	den := poly.NewPolynomial(1)
	den.Set(poly.ExponentTuple{0}, bigrat.RationalFromInt64(2))
	den.Set(poly.ExponentTuple{1}, bigrat.RationalFromInt64(7))

	var out bytes.Buffer
	PrintFunction(&out, reconstruct.FunctionResult{Tag: "f1", Num: num, Den: den})
	text := out.String()

	if !strings.Contains(text, "f1") || !strings.Contains(text, "/") {
		t.Fatalf("expected an N/D rendering, got %q", text)
	}
}

func TestPrintFunctionSkipsFailedResults(t *testing.T) {
	var out bytes.Buffer
	PrintFunction(&out, reconstruct.FunctionResult{Tag: "f1", Err: errors.New("boom")})
	if out.Len() != 0 {
		t.Fatalf("expected no output for a failed result, got %q", out.String())
	}
}

func TestColorFunctionsReturnNonNilStrings(t *testing.T) {
	fns := []func() string{ColorReset, ColorRed, ColorGreen, ColorYellow, ColorBlue, ColorMagenta, ColorCyan, ColorBold, ColorUnderline}
	for _, fn := range fns {
		_ = fn() // must not panic; emptiness depends on the active theme
	}
}
