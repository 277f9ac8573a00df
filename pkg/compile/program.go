package compile

import (
	"sort"
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/precompile"
	"github.com/ritzau/patchc/pkg/target"
)

const debugReminder = `\nDEBUG : remember, you must return from message receiver`

// program assembles the IR of the whole generated program.
type program struct {
	target     target.Target
	pc         *precompile.Precompilation
	globalCode string
	imports    []deps.Import
	exports    []deps.Export
}

func messageArg() []*ast.VarDecl {
	return []*ast.VarDecl{ast.Arg("Message", "m")}
}

func (p *program) build() (*ast.Container, error) {
	nodes, err := p.nodeDeclarations()
	if err != nil {
		return nil, err
	}
	receivers, err := p.messageReceivers()
	if err != nil {
		return nil, err
	}
	return ast.Lines(
		ast.Build(p.target.Preamble(p.pc.Settings.Audio.BitDepth)),
		ast.Build(p.globalCode),
		ast.Build(p.target.Imports(p.imports)),
		p.coreGlobals(),
		p.arrays(),
		nodes,
		receivers,
		p.senders(),
		p.inletCallers(),
		p.configure(),
		p.loop(),
		ast.Build(p.target.Exports(dedupeExports(p.exports))),
	), nil
}

func (p *program) coreGlobals() *ast.Container {
	return ast.Lines(
		ast.Build(ast.Var("Float", precompile.SampleRate, 0)),
		ast.Build(ast.Var("Int", precompile.BlockSize, 0)),
		ast.Build(ast.Var("Int", precompile.Frame, 0)),
		ast.Build(ast.Var("FloatArray[]", precompile.Input, "[]")),
		ast.Build(ast.Var("FloatArray[]", precompile.Output, "[]")),
		ast.Build(ast.ConstVar("Float", precompile.NullSignal, 0)),
		ast.Build(ast.Func(precompile.NullMessageReceiver, messageArg(), "void")),
	)
}

func (p *program) arrays() *ast.Container {
	s := p.pc.Settings
	var lines []*ast.Container
	for _, name := range s.ArrayNames() {
		lines = append(lines, ast.Build(ast.Var(
			"FloatArray",
			precompile.ArrayVariable(name),
			ast.Build("new FloatArray(", len(s.Arrays[name]), ")"),
		)))
	}
	return ast.Lines(lines...)
}

// nodeDeclarations emits, per node in declare order, its state variables,
// its signal output variables and its own declarations.
func (p *program) nodeDeclarations() (*ast.Container, error) {
	var lines []*ast.Container
	for _, id := range p.pc.DeclareOrder {
		rec := p.pc.Records[id]
		impl := p.pc.Impls[id]
		n, _ := p.pc.Graph.Node(id)

		names := make([]string, 0, len(impl.StateVariables))
		for name := range impl.StateVariables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			variable, err := rec.State.Get(name)
			if err != nil {
				return nil, err
			}
			sv := impl.StateVariables[name]
			lines = append(lines, ast.Build(ast.Var(sv.Type, variable, sv.Init)))
		}

		if !p.pc.Inline.IsInlined(id) {
			for _, outlet := range n.Outlets {
				if outlet.Kind != model.Signal {
					continue
				}
				out, err := rec.Outs.Get(outlet.ID)
				if err != nil {
					return nil, err
				}
				lines = append(lines, ast.Build(ast.Var("Float", out, 0)))
			}
		}

		lines = append(lines, rec.Declarations)
	}
	return ast.Lines(lines...), nil
}

func (p *program) messageReceivers() (*ast.Container, error) {
	var funcs []*ast.Container
	for _, id := range p.pc.DeclareOrder {
		rec := p.pc.Records[id]
		n, _ := p.pc.Graph.Node(id)
		for _, inlet := range n.Inlets {
			body, ok := rec.MessageReceivers[inlet.ID]
			if !ok {
				continue
			}
			name, err := rec.Rcvs.Get(inlet.ID)
			if err != nil {
				return nil, err
			}
			display, err := p.pc.Globals.Get(precompile.GlobalsMsg, "display")
			if err != nil {
				return nil, err
			}
			unsupported := p.unsupportedMessage(n, inlet.ID, display)
			funcs = append(funcs, ast.Build(ast.Func(
				name, messageArg(), "void",
				"\n", ast.Lines(body, unsupported), "\n",
			)))
		}
	}
	return ast.Lines(funcs...), nil
}

// unsupportedMessage is the statement ending every receiver. Receivers
// return when they handle a message, so reaching it is a runtime error.
func (p *program) unsupportedMessage(n *model.Node, inletID, display string) *ast.Container {
	var reminder string
	if p.pc.Settings.Debug {
		reminder = " + '" + debugReminder + "'"
	}
	return ast.Build(
		"throw new Error('[", quote(n.Type), `], id "`, quote(n.ID), `", inlet "`, quote(inletID),
		`", unsupported message : ' + `, display, "(m)", reminder, ")",
	)
}

// quote escapes s for use inside a single-quoted string literal.
func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s)
}

func (p *program) senders() *ast.Container {
	var funcs []*ast.Container
	for _, s := range p.pc.Senders {
		funcs = append(funcs, ast.Build(ast.Func(s.Name, messageArg(), "void", "\n", s.Body(), "\n")))
	}
	return ast.Lines(funcs...)
}

func (p *program) inletCallers() *ast.Container {
	var funcs []*ast.Container
	for _, c := range p.pc.InletCallers {
		funcs = append(funcs, ast.Build(ast.Func(c.Name, messageArg(), "void", c.Receiver, "(m)")))
	}
	return ast.Lines(funcs...)
}

func (p *program) configure() *ast.Container {
	s := p.pc.Settings
	lines := []*ast.Container{
		ast.Build(precompile.SampleRate, " = sampleRate"),
		ast.Build(precompile.BlockSize, " = blockSize"),
	}
	for _, name := range s.ArrayNames() {
		values := make([]string, len(s.Arrays[name]))
		for i, v := range s.Arrays[name] {
			values[i] = ast.FormatNumber(v)
		}
		lines = append(lines, ast.Build(precompile.ArrayVariable(name), ".set([", strings.Join(values, ", "), "])"))
	}

	args := []*ast.VarDecl{ast.Arg("Float", "sampleRate"), ast.Arg("Int", "blockSize")}
	return ast.Build(ast.Func("configure", args, "void", "\n", ast.Lines(lines...), "\n"))
}

func (p *program) loop() *ast.Container {
	var statements []*ast.Container
	for _, id := range p.pc.LoopOrder {
		statements = append(statements, p.pc.Records[id].Loop)
	}

	frame := precompile.Frame
	body := ast.Lines(
		ast.Build(precompile.Input, " = input"),
		ast.Build(precompile.Output, " = output"),
		ast.Build("for (", frame, " = 0; ", frame, " < ", precompile.BlockSize, "; ", frame, "++) {"),
		ast.Lines(statements...),
		ast.Build("}"),
	)
	args := []*ast.VarDecl{ast.Arg("FloatArray[]", "input"), ast.Arg("FloatArray[]", "output")}
	return ast.Build(ast.Func("loop", args, "void", "\n", body, "\n"))
}

func dedupeExports(exports []deps.Export) []deps.Export {
	seen := make(map[string]bool, len(exports))
	out := make([]deps.Export, 0, len(exports))
	for _, e := range exports {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}
