package stdlib

import (
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
)

// printRuntime declares the host logging function used by print.
var printRuntime = &deps.WithSettings{
	Name: "print",
	Imports: []deps.Import{
		{Name: "print_log", Args: []*ast.VarDecl{ast.Arg("string", "line")}, ReturnType: "void"},
	},
}

// onFloat handles a message starting with a float: the float is appended
// to assign, then follow-up statements run and the receiver returns.
func onFloat(l *lookup, assign string, then ...*ast.Container) *ast.Container {
	isFloat := l.msg("isFloatToken")
	read := l.msg("readFloatToken")
	return ast.Lines(
		ast.Build("if (", isFloat, "(m, 0)) {"),
		ast.Build(assign, read, "(m, 0)"),
		ast.Lines(then...),
		ast.Build("return"),
		ast.Build("}"),
	)
}

// onBang handles a bang message.
func onBang(l *lookup, then ...*ast.Container) *ast.Container {
	return ast.Lines(
		ast.Build("if (", l.msg("isBang"), "(m)) {"),
		ast.Lines(then...),
		ast.Build("return"),
		ast.Build("}"),
	)
}

// sendFloat sends a one-float message through the outlet's sender.
func sendFloat(l *lookup, outlet, value string) *ast.Container {
	return ast.Build(l.snd(outlet), "(", l.msg("floats"), "([", value, "]))")
}

// floatAtom stores a number. A float on the left inlet stores and outputs
// it, a bang outputs the stored value and the right inlet stores silently.
func floatAtom() *node.Implementation {
	return &node.Implementation{
		StateVariables: map[string]node.StateVariable{
			"value": {Type: "Float", Init: 0},
		},
		GenerateMessageReceivers: func(ctx node.Context) (map[string]*ast.Container, error) {
			l := &lookup{ctx: ctx}
			value := l.state("value")
			receivers := map[string]*ast.Container{
				"0": ast.Lines(
					onFloat(l, value+" = ", sendFloat(l, "0", value)),
					onBang(l, sendFloat(l, "0", value)),
				),
				"1": onFloat(l, value+" = "),
			}
			if l.err != nil {
				return nil, l.err
			}
			return receivers, nil
		},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Message), portlet("1", model.Message)},
			[]model.Portlet{portlet("0", model.Message)},
		),
	}
}

// messageAdd adds the left operand to the stored right operand, which
// starts at the "value" argument.
func messageAdd() *node.Implementation {
	return &node.Implementation{
		StateVariables: map[string]node.StateVariable{
			"left":  {Type: "Float", Init: 0},
			"right": {Type: "Float", Init: 0},
		},
		GenerateDeclarations: func(ctx node.Context) (*ast.Container, error) {
			initial := ctx.Node.ArgFloat("value", 0)
			if initial == 0 {
				return nil, nil
			}
			l := &lookup{ctx: ctx}
			right := l.state("right")
			if l.err != nil {
				return nil, l.err
			}
			return ast.Build(right, " = ", initial), nil
		},
		GenerateMessageReceivers: func(ctx node.Context) (map[string]*ast.Container, error) {
			l := &lookup{ctx: ctx}
			left, right := l.state("left"), l.state("right")
			sum := left + " + " + right
			receivers := map[string]*ast.Container{
				"0": ast.Lines(
					onFloat(l, left+" = ", sendFloat(l, "0", sum)),
					onBang(l, sendFloat(l, "0", sum)),
				),
				"1": onFloat(l, right+" = "),
			}
			if l.err != nil {
				return nil, l.err
			}
			return receivers, nil
		},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Message), portlet("1", model.Message)},
			[]model.Portlet{portlet("0", model.Message)},
		),
	}
}

// printer logs every message it receives, prefixed with the "prefix"
// argument.
func printer() *node.Implementation {
	return &node.Implementation{
		Sink: true,
		GenerateMessageReceivers: func(ctx node.Context) (map[string]*ast.Container, error) {
			l := &lookup{ctx: ctx}
			prefix := quote(ctx.Node.ArgString("prefix", "print"))
			body := ast.Lines(
				ast.Build("print_log('", prefix, ": ' + ", l.msg("display"), "(m))"),
				ast.Build("return"),
			)
			if l.err != nil {
				return nil, l.err
			}
			return map[string]*ast.Container{"0": body}, nil
		},
		Dependencies: []deps.GlobalCode{printRuntime},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Message)},
			nil,
		),
	}
}

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s)
}
