package stdlib

import (
	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/precompile"
)

// twoPi is shared by every node computing a phase increment.
var twoPi = deps.Plain(func(ctx deps.Context) *ast.Container {
	return ast.Build(ast.ConstVar("Float", "TWO_PI", "2 * Math.PI"))
})

func oscillator() *node.Implementation {
	return &node.Implementation{
		StateVariables: map[string]node.StateVariable{
			"phase": {Type: "Float", Init: 0},
		},
		GenerateLoop: func(ctx node.Context) (*ast.Container, error) {
			l := &lookup{ctx: ctx}
			phase := l.state("phase")
			out := l.out("0")
			sampleRate := l.core(precompile.SampleRate)
			frequency := ast.FormatNumber(ctx.Node.ArgFloat("frequency", 0))
			if connected(ctx.Node, "0") {
				frequency = l.in("0")
			}
			if l.err != nil {
				return nil, l.err
			}
			return ast.Build(
				out, " = Math.cos(", phase, ")\n",
				phase, " += TWO_PI * ", frequency, " / ", sampleRate,
			), nil
		},
		GenerateMessageReceivers: func(ctx node.Context) (map[string]*ast.Container, error) {
			l := &lookup{ctx: ctx}
			phase := l.state("phase")
			body := onFloat(l, phase+" = TWO_PI * ")
			if l.err != nil {
				return nil, l.err
			}
			return map[string]*ast.Container{"1": body}, nil
		},
		Dependencies: []deps.GlobalCode{twoPi},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Signal), portlet("1", model.Message)},
			[]model.Portlet{portlet("0", model.Signal)},
		),
	}
}

// binarySignal combines two signals with an operator. Without a signal on
// the right inlet the "value" argument is used.
func binarySignal(operator string) *node.Implementation {
	return &node.Implementation{
		GenerateLoopInline: func(ctx node.Context) (*ast.Container, error) {
			l := &lookup{ctx: ctx}
			left := l.in("0")
			right := ast.FormatNumber(ctx.Node.ArgFloat("value", 0))
			if connected(ctx.Node, "1") {
				right = l.in("1")
			}
			if l.err != nil {
				return nil, l.err
			}
			return ast.Build(left, " ", operator, " ", right), nil
		},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Signal), portlet("1", model.Signal)},
			[]model.Portlet{portlet("0", model.Signal)},
		),
	}
}

func sig() *node.Implementation {
	return &node.Implementation{
		StateVariables: map[string]node.StateVariable{
			"value": {Type: "Float", Init: 0},
		},
		GenerateDeclarations: func(ctx node.Context) (*ast.Container, error) {
			initial := ctx.Node.ArgFloat("value", 0)
			if initial == 0 {
				return nil, nil
			}
			l := &lookup{ctx: ctx}
			value := l.state("value")
			if l.err != nil {
				return nil, l.err
			}
			return ast.Build(value, " = ", initial), nil
		},
		GenerateLoopInline: func(ctx node.Context) (*ast.Container, error) {
			l := &lookup{ctx: ctx}
			value := l.state("value")
			if l.err != nil {
				return nil, l.err
			}
			return ast.Build(value), nil
		},
		GenerateMessageReceivers: func(ctx node.Context) (map[string]*ast.Container, error) {
			l := &lookup{ctx: ctx}
			body := onFloat(l, l.state("value")+" = ")
			if l.err != nil {
				return nil, l.err
			}
			return map[string]*ast.Container{"0": body}, nil
		},
		Portlets: fixedPortlets(
			[]model.Portlet{portlet("0", model.Message)},
			[]model.Portlet{portlet("0", model.Signal)},
		),
	}
}

func channelPortlets(args map[string]any) []model.Portlet {
	return signals("", argInt(args, "channels", 2))
}

func adc() *node.Implementation {
	return &node.Implementation{
		GenerateLoop: func(ctx node.Context) (*ast.Container, error) {
			l := &lookup{ctx: ctx}
			input := l.core(precompile.Input)
			frame := l.core(precompile.Frame)
			var lines []*ast.Container
			for i, outlet := range ctx.Node.Outlets {
				out := l.out(outlet.ID)
				if i < ctx.Settings.Audio.ChannelCount.In {
					lines = append(lines, ast.Build(out, " = ", input, "[", i, "][", frame, "]"))
				} else {
					lines = append(lines, ast.Build(out, " = 0"))
				}
			}
			if l.err != nil {
				return nil, l.err
			}
			return ast.Lines(lines...), nil
		},
		Portlets: func(args map[string]any) ([]model.Portlet, []model.Portlet) {
			return nil, channelPortlets(args)
		},
	}
}

func dac() *node.Implementation {
	return &node.Implementation{
		Sink: true,
		GenerateLoop: func(ctx node.Context) (*ast.Container, error) {
			l := &lookup{ctx: ctx}
			output := l.core(precompile.Output)
			frame := l.core(precompile.Frame)
			var lines []*ast.Container
			for i, inlet := range ctx.Node.Inlets {
				if i >= ctx.Settings.Audio.ChannelCount.Out {
					break
				}
				lines = append(lines, ast.Build(output, "[", i, "][", frame, "] = ", l.in(inlet.ID)))
			}
			if l.err != nil {
				return nil, l.err
			}
			return ast.Lines(lines...), nil
		},
		Portlets: func(args map[string]any) ([]model.Portlet, []model.Portlet) {
			return channelPortlets(args), nil
		},
	}
}
