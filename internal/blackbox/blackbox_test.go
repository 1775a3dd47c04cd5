package blackbox

import (
	"strings"
	"testing"

	"github.com/agbru/firefly/internal/field"
)

func TestParseFunctionsSkipsCommentsAndBlanks(t *testing.T) {
	t.Parallel()
	src := "f1\n# a comment\n\nf2\n   \nf3\n"
	fc, err := ParseFunctions(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseFunctions: %v", err)
	}
	want := []string{"f1", "f2", "f3"}
	if len(fc.Functions) != len(want) {
		t.Fatalf("got %v, want %v", fc.Functions, want)
	}
	for i, w := range want {
		if fc.Functions[i] != w {
			t.Errorf("Functions[%d] = %q, want %q", i, fc.Functions[i], w)
		}
	}
}

func TestParseVariablesRejectsEmpty(t *testing.T) {
	t.Parallel()
	if _, err := ParseVariables(strings.NewReader("# only comments\n")); err == nil {
		t.Fatal("expected error for config/vars with no variables")
	}
}

func TestApplySkipFiltersInOrder(t *testing.T) {
	t.Parallel()
	fc := FunctionConfig{Functions: []string{"f1", "f2", "f3"}}
	skip := map[string]bool{"f2": true}
	got := fc.ApplySkip(skip)
	if len(got.Functions) != 2 || got.Functions[0] != "f1" || got.Functions[1] != "f3" {
		t.Errorf("ApplySkip = %v", got.Functions)
	}
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("f2", constBlackBox{})
	r.Register("f1", constBlackBox{})
	r.Register("f2", constBlackBox{}) // re-register, should not move position

	tags := r.Tags()
	if len(tags) != 2 || tags[0] != "f2" || tags[1] != "f1" {
		t.Errorf("Tags() = %v, want [f2 f1]", tags)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if _, ok := r.Lookup("f3"); ok {
		t.Error("Lookup(f3) should not be found")
	}
}

type constBlackBox struct{}

func (constBlackBox) Evaluate(point []field.Elem, threadID int) ([]field.Elem, error) {
	return point, nil
}
func (constBlackBox) PrimeChanged(field.Field) {}

func TestMultiObserverFansOut(t *testing.T) {
	t.Parallel()
	var a, b countingObserver
	m := NewMultiObserver(&a, &b)
	m.Update(ProgressUpdate{FunctionTag: "f1"})
	if a.count != 1 || b.count != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", a.count, b.count)
	}
}

type countingObserver struct{ count int }

func (c *countingObserver) Update(ProgressUpdate) { c.count++ }
