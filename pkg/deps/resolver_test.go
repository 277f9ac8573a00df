package deps

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/patchc/pkg/ast"
)

func textGen(s string) Plain {
	return func(Context) *ast.Container { return ast.Build(s) }
}

// fixture wires g1..g6 as dep1={g2,[g1,g6]}, dep2={g4,[g5,g3,dep1]} and
// returns the top-level list [g1, dep2].
func fixture() []GlobalCode {
	g1, g2, g3, g4, g5, g6 := textGen("g1"), textGen("g2"), textGen("g3"), textGen("g4"), textGen("g5"), textGen("g6")
	dep1 := &WithSettings{
		Name:         "dep1",
		Generator:    Generator(g2),
		Dependencies: []GlobalCode{g1, g6},
		Imports:      []Import{{Name: "host_a", ReturnType: "void"}},
	}
	dep2 := &WithSettings{
		Name:         "dep2",
		Generator:    Generator(g4),
		Dependencies: []GlobalCode{g5, g3, dep1},
		Imports:      []Import{{Name: "host_b", ReturnType: "void"}, {Name: "host_a", ReturnType: "Int"}},
		Exports:      []Export{{Name: "configure"}, {Name: "loop"}},
	}
	return []GlobalCode{g1, dep2}
}

func TestFlatten(t *testing.T) {
	got, err := Flatten(Context{}, fixture())
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	want := []string{"g1", "g5", "g3", "g1", "g6", "g2", "g4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	got, err := Resolve(Context{}, fixture())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := strings.Join([]string{"g1", "g5", "g3", "g6", "g2", "g4"}, "\n")
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "", "b", "a", "c", "b"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Dedupe() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectImportsAndExports(t *testing.T) {
	imports := CollectImports(fixture())
	if len(imports) != 2 || imports[0].Name != "host_a" || imports[1].Name != "host_b" {
		t.Fatalf("Expected [host_a host_b], got %+v", imports)
	}
	// The first declaration wins.
	if imports[0].ReturnType != "void" {
		t.Errorf("Expected first host_a declaration to be kept, got %q", imports[0].ReturnType)
	}

	exports := CollectExports(fixture())
	if len(exports) != 2 || exports[0].Name != "configure" || exports[1].Name != "loop" {
		t.Errorf("Expected [configure loop], got %+v", exports)
	}
}

func TestSharedDependencyIsNotACycle(t *testing.T) {
	shared := &WithSettings{Name: "shared", Generator: Generator(textGen("s"))}
	a := &WithSettings{Name: "a", Generator: Generator(textGen("a")), Dependencies: []GlobalCode{shared}}
	b := &WithSettings{Name: "b", Generator: Generator(textGen("b")), Dependencies: []GlobalCode{shared, a}}

	got, err := Resolve(Context{}, []GlobalCode{a, b})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "s\na\nb" {
		t.Errorf("Expected %q, got %q", "s\na\nb", got)
	}
}

func TestCyclePanics(t *testing.T) {
	a := &WithSettings{Name: "a", Generator: Generator(textGen("a"))}
	b := &WithSettings{Name: "b", Generator: Generator(textGen("b")), Dependencies: []GlobalCode{a}}
	a.Dependencies = []GlobalCode{b}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected a panic for a dependency cycle")
		}
	}()
	_, _ = Flatten(Context{}, []GlobalCode{a})
}
