package target

import (
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/settings"
)

// Scripting emits dynamically-typed code: declarations carry no type
// annotations and classes have no runtime representation.
type Scripting struct{}

func (Scripting) Name() string { return settings.TargetScripting }

func (Scripting) Var(d *ast.VarDecl, value string) string {
	return "let " + d.Name + initializer(value)
}

func (Scripting) ConstVar(d *ast.ConstVarDecl, value string) string {
	return "const " + d.Name + initializer(value)
}

func (Scripting) Func(d *ast.FuncDecl, body string) string {
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.Name
	}
	return "function " + d.Name + "(" + strings.Join(args, ", ") + ") {" + body + "}"
}

func (Scripting) Class(*ast.ClassDecl) string {
	return ""
}

func (Scripting) Preamble(bitDepth int) string {
	return "const FloatArray = " + floatArrayType(bitDepth)
}

func (Scripting) Imports(imports []deps.Import) string {
	lines := make([]string, len(imports))
	for i, imp := range imports {
		lines[i] = "const " + imp.Name + " = imports." + imp.Name
	}
	return strings.Join(lines, "\n")
}

func (Scripting) Exports(exports []deps.Export) string {
	lines := make([]string, len(exports))
	for i, exp := range exports {
		lines[i] = "exports." + exp.Name + " = " + exp.Name
	}
	return strings.Join(lines, "\n")
}
