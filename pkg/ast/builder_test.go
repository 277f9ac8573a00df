package ast

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuild(t *testing.T) {
	v := Var("Float", "a", 1)

	tests := []struct {
		name  string
		parts []any
		want  []Content
	}{
		{
			name:  "merges adjacent text",
			parts: []any{"let ", "a", " = ", 1},
			want:  []Content{Text("let a = 1")},
		},
		{
			name:  "drops nil and empty strings",
			parts: []any{nil, "", "x", nil, ""},
			want:  []Content{Text("x")},
		},
		{
			name:  "stringifies numbers",
			parts: []any{1, " ", 0.5, " ", int64(-3), " ", 2.0},
			want:  []Content{Text("1 0.5 -3 2")},
		},
		{
			name:  "flattens nested slices",
			parts: []any{"a", []any{"b", []any{"c", 1}}, []string{"d", "e"}},
			want:  []Content{Text("abc1de")},
		},
		{
			name:  "inserts elements between text",
			parts: []any{"before ", v, " after"},
			want:  []Content{Text("before "), v, Text(" after")},
		},
		{
			name:  "splices containers",
			parts: []any{"a", Build("b", v, "c"), "d"},
			want:  []Content{Text("ab"), v, Text("cd")},
		},
		{
			name:  "drops empty containers",
			parts: []any{Build(), "x", &Container{}, (*Container)(nil)},
			want:  []Content{Text("x")},
		},
		{
			name:  "empty input",
			parts: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.parts...)
			if diff := cmp.Diff(tt.want, got.Content); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildInvariantsRandomNesting(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var randomPart func(depth int) any
	randomPart = func(depth int) any {
		switch rng.Intn(7) {
		case 0:
			return nil
		case 1:
			return []string{"", "a", "bc", " "}[rng.Intn(4)]
		case 2:
			return rng.Intn(100)
		case 3:
			return float64(rng.Intn(100)) / 4
		case 4:
			if depth > 3 {
				return "leaf"
			}
			n := rng.Intn(4)
			parts := make([]any, n)
			for i := range parts {
				parts[i] = randomPart(depth + 1)
			}
			return parts
		case 5:
			if depth > 3 {
				return nil
			}
			n := rng.Intn(4)
			parts := make([]any, n)
			for i := range parts {
				parts[i] = randomPart(depth + 1)
			}
			return Build(parts...)
		default:
			return Var("Int", "v", rng.Intn(10))
		}
	}

	for i := 0; i < 500; i++ {
		n := rng.Intn(8)
		parts := make([]any, n)
		for j := range parts {
			parts[j] = randomPart(0)
		}
		c := Build(parts...)
		for k, entry := range c.Content {
			switch e := entry.(type) {
			case Text:
				if e == "" {
					t.Fatalf("iteration %d: empty text at index %d", i, k)
				}
				if k > 0 {
					if _, prevText := c.Content[k-1].(Text); prevText {
						t.Fatalf("iteration %d: adjacent text entries at index %d: %#v", i, k, c.Content)
					}
				}
			case *Container:
				t.Fatalf("iteration %d: nested container at index %d", i, k)
			}
		}
	}
}

func TestVarInitializer(t *testing.T) {
	v := Var("Int", "a", nil)
	if v.Value != nil {
		t.Errorf("Expected no initializer, got %#v", v.Value)
	}

	v = Var("Int", "a", 1)
	if diff := cmp.Diff([]Content{Text("1")}, v.Value.Content); diff != "" {
		t.Errorf("Var initializer mismatch (-want +got):\n%s", diff)
	}

	c := ConstVar("string", "s", "'hello'")
	if diff := cmp.Diff([]Content{Text("'hello'")}, c.Value.Content); diff != "" {
		t.Errorf("ConstVar initializer mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncBody(t *testing.T) {
	f := Func("f", []*VarDecl{Arg("Float", "x")}, "void", "return ", Build("x", " + 1"))
	if diff := cmp.Diff([]Content{Text("return x + 1")}, f.Body.Content); diff != "" {
		t.Errorf("Func body mismatch (-want +got):\n%s", diff)
	}
	if len(f.Args) != 1 || f.Args[0].Name != "x" {
		t.Errorf("Expected one arg named x, got %#v", f.Args)
	}
}

func TestJoin(t *testing.T) {
	got := Lines(Build("a()"), Build(), nil, Build("b()"))
	if diff := cmp.Diff([]Content{Text("a()\nb()")}, got.Content); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
}

func TestKindString(t *testing.T) {
	if KindFunc.String() != "Func" {
		t.Errorf("Expected Func, got %s", KindFunc.String())
	}
	if Kind(99).String() != "Unknown" {
		t.Errorf("Expected Unknown, got %s", Kind(99).String())
	}
}
