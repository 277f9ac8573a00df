package target

import (
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/settings"
)

// Systems emits statically-typed code with annotations on every declaration.
type Systems struct{}

func (Systems) Name() string { return settings.TargetSystems }

func (Systems) Var(d *ast.VarDecl, value string) string {
	return "let " + d.Name + ": " + d.Type + initializer(value)
}

func (Systems) ConstVar(d *ast.ConstVarDecl, value string) string {
	return "const " + d.Name + ": " + d.Type + initializer(value)
}

func (Systems) Func(d *ast.FuncDecl, body string) string {
	return "function " + d.Name + "(" + typedArgs(d.Args) + "): " + d.ReturnType + " {" + body + "}"
}

func (Systems) Class(d *ast.ClassDecl) string {
	var sb strings.Builder
	sb.WriteString("class " + d.Name + " {\n")
	for _, m := range d.Members {
		sb.WriteString(m.Name + ": " + m.Type + "\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func (Systems) Preamble(bitDepth int) string {
	floatType := "f64"
	if bitDepth == 32 {
		floatType = "f32"
	}
	return strings.Join([]string{
		"type Float = " + floatType,
		"type Int = i32",
		"type FloatArray = " + floatArrayType(bitDepth),
	}, "\n")
}

func (Systems) Imports(imports []deps.Import) string {
	lines := make([]string, len(imports))
	for i, imp := range imports {
		lines[i] = "export declare function " + imp.Name + "(" + typedArgs(imp.Args) + "): " + imp.ReturnType
	}
	return strings.Join(lines, "\n")
}

func (Systems) Exports(exports []deps.Export) string {
	if len(exports) == 0 {
		return ""
	}
	names := make([]string, len(exports))
	for i, exp := range exports {
		names[i] = exp.Name
	}
	return "export { " + strings.Join(names, ", ") + " }"
}

func typedArgs(args []*ast.VarDecl) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + ": " + a.Type
	}
	return strings.Join(parts, ", ")
}
