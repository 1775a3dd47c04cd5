// Package cli renders ff_insert's terminal output: a spinner-driven
// progress display while the Reconstructor is running, and a colorized
// summary once every registered function is done or failed. Generalized
// from a single averaged progress bar over N algorithm candidates to a
// per-function phase/prime status line, since ProgressUpdate reports a
// discrete phase and prime counter rather than a 0..1 completion fraction.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/firefly/internal/blackbox"
	"github.com/agbru/firefly/internal/poly"
	"github.com/agbru/firefly/internal/reconstruct"
	"github.com/agbru/firefly/internal/ui"
)

// ProgressRefreshRate is the spinner's redraw interval.
const ProgressRefreshRate = 200 * time.Millisecond

// Color functions delegate to the active theme, kept as
// backward-compatible wrappers for call sites that want a bare string
// rather than a Theme value.
func ColorReset() string     { return ui.GetCurrentTheme().Reset }
func ColorRed() string       { return ui.GetCurrentTheme().Error }
func ColorGreen() string     { return ui.GetCurrentTheme().Success }
func ColorYellow() string    { return ui.GetCurrentTheme().Warning }
func ColorBlue() string      { return ui.GetCurrentTheme().Primary }
func ColorMagenta() string   { return ui.GetCurrentTheme().Info }
func ColorCyan() string      { return ui.GetCurrentTheme().Secondary }
func ColorBold() string      { return ui.GetCurrentTheme().Bold }
func ColorUnderline() string { return ui.GetCurrentTheme().Underline }

var newSpinner = func(options ...spinner.Option) *spinner.Spinner {
	return spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
}

// functionStatus is the latest known state of one registered function,
// refreshed as ProgressUpdate values arrive.
type functionStatus struct {
	tag          string
	phase        string
	primeCounter int
}

// DisplayProgress drains updates until ch is closed, rendering a spinner
// whose suffix lists every function's tag, phase, and prime counter. It
// is meant to run in its own goroutine for the duration of Reconstructor.Run.
func DisplayProgress(wg *sync.WaitGroup, ch <-chan blackbox.ProgressUpdate, out io.Writer) {
	defer wg.Done()

	statuses := make(map[string]*functionStatus)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	render := func() {
		s.Suffix = " " + renderStatusLine(statuses)
	}

	for update := range ch {
		st, ok := statuses[update.FunctionTag]
		if !ok {
			st = &functionStatus{tag: update.FunctionTag}
			statuses[update.FunctionTag] = st
		}
		st.phase = update.Phase
		st.primeCounter = update.PrimeCounter
		render()
	}
	s.Stop()
	stopped = true
}

func renderStatusLine(statuses map[string]*functionStatus) string {
	tags := make([]string, 0, len(statuses))
	for tag := range statuses {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		st := statuses[tag]
		parts = append(parts, fmt.Sprintf("%s[%s%s%s p%d]", st.tag, ColorCyan(), st.phase, ColorReset(), st.primeCounter))
	}
	return strings.Join(parts, "  ")
}

// PrintSummary writes one line per FunctionResult: green with its
// rational function's term counts on success, red with the error on
// failure.
func PrintSummary(out io.Writer, results []reconstruct.FunctionResult) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s%s%s: %sFAILED%s: %v\n", ColorBold(), r.Tag, ColorReset(), ColorRed(), ColorReset(), r.Err)
			continue
		}
		numTerms, denTerms := 0, 0
		if r.Num != nil {
			numTerms = r.Num.Len()
		}
		if r.Den != nil {
			denTerms = r.Den.Len()
		}
		fmt.Fprintf(out, "%s%s%s: %sOK%s  N has %d term(s), D has %d term(s)\n",
			ColorBold(), r.Tag, ColorReset(), ColorGreen(), ColorReset(), numTerms, denTerms)
	}
}

// PrintFunction writes tag's reconstructed rational function in N/D form.
func PrintFunction(out io.Writer, r reconstruct.FunctionResult) {
	if r.Err != nil || r.Num == nil || r.Den == nil {
		return
	}
	fmt.Fprintf(out, "%s%s%s(x) = (%s) / (%s)\n", ColorMagenta(), r.Tag, ColorReset(), formatPolynomial(r.Num), formatPolynomial(r.Den))
}

// formatPolynomial renders p's monomials in colex order as
// "coeff*x0^e0*x1^e1 + ...", omitting exponents that are zero.
func formatPolynomial(p *poly.Polynomial) string {
	terms := p.Terms()
	if len(terms) == 0 {
		return "0"
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		var b strings.Builder
		b.WriteString(t.Coeff.String())
		for v, e := range t.Exp {
			if e == 0 {
				continue
			}
			fmt.Fprintf(&b, "*x%d^%d", v, e)
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, " + ")
}
