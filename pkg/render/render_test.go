package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ritzau/patchc/pkg/ast"
)

// tagMacros renders declarations as bracketed tags so tests can see exactly
// which macro was called with which rendered value.
type tagMacros struct{}

func (tagMacros) Var(d *ast.VarDecl, value string) string {
	return fmt.Sprintf("<Var %s %s=%s>", d.Type, d.Name, value)
}

func (tagMacros) ConstVar(d *ast.ConstVarDecl, value string) string {
	return fmt.Sprintf("<ConstVar %s %s=%s>", d.Type, d.Name, value)
}

func (tagMacros) Func(d *ast.FuncDecl, body string) string {
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.Name
	}
	return fmt.Sprintf("<Func %s(%s) {%s}>", d.Name, strings.Join(args, ","), body)
}

func (tagMacros) Class(d *ast.ClassDecl) string {
	return fmt.Sprintf("<Class %s %d>", d.Name, len(d.Members))
}

type bogus struct{}

func (bogus) Kind() ast.Kind { return ast.Kind(42) }

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   *ast.Container
		want string
	}{
		{
			name: "plain text",
			in:   ast.Build("a = ", 1),
			want: "a = 1",
		},
		{
			name: "var with initializer",
			in:   ast.Build(ast.Var("Int", "a", 1)),
			want: "<Var Int a=1>",
		},
		{
			name: "var initializer rendered recursively",
			in:   ast.Build(ast.Var("Int", "a", ast.Build(ast.ConstVar("Int", "b", 2)))),
			want: "<Var Int a=<ConstVar Int b=2>>",
		},
		{
			name: "func body rendered before macro",
			in: ast.Build("// head\n", ast.Func("f", []*ast.VarDecl{ast.Arg("Float", "x")}, "void",
				"let y = x\n", ast.Var("Float", "z", "x"))),
			want: "// head\n<Func f(x) {let y = x\n<Var Float z=x>}>",
		},
		{
			name: "class",
			in:   ast.Build(ast.Class("C", ast.Arg("Int", "a"), ast.Arg("Int", "b"))),
			want: "<Class C 2>",
		},
		{
			name: "nil container",
			in:   nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tagMacros{}, tt.in)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderUnknownElement(t *testing.T) {
	c := &ast.Container{Content: []ast.Content{ast.Text("x"), bogus{}}}

	_, err := Render(tagMacros{}, c)
	var structErr *AstStructureError
	if !errors.As(err, &structErr) {
		t.Fatalf("Expected AstStructureError, got %v", err)
	}

	// The error must also surface from inside a function body.
	f := &ast.FuncDecl{Name: "f", Body: c}
	_, err = RenderContent(tagMacros{}, f)
	if !errors.As(err, &structErr) {
		t.Fatalf("Expected AstStructureError from func body, got %v", err)
	}
}
