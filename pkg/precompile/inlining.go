package precompile

import (
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/render"
)

// InlinePlan records which hot nodes are folded into the expression of
// their consumer.
type InlinePlan struct {
	// inlinedInto maps an inlined node to the node consuming its output.
	inlinedInto map[string]string
	roots       map[string]bool
}

// IsInlined reports whether the node emits nothing of its own because its
// expression is nested into its consumer.
func (p *InlinePlan) IsInlined(id string) bool {
	_, ok := p.inlinedInto[id]
	return ok
}

// IsRoot reports whether the node emits an assignment of an inline
// expression to its output variable.
func (p *InlinePlan) IsRoot(id string) bool {
	return p.roots[id]
}

// Consumer returns the node an inlined node is folded into.
func (p *InlinePlan) Consumer(id string) (string, bool) {
	c, ok := p.inlinedInto[id]
	return c, ok
}

// InlineCapable reports whether a node can be written as one expression:
// it has an inline generator and a single signal outlet.
func InlineCapable(n *model.Node, impl *node.Implementation) bool {
	return impl.GenerateLoopInline != nil && len(n.Outlets) == 1 && n.Outlets[0].Kind == model.Signal
}

func planInlining(pc *Precompilation) *InlinePlan {
	plan := &InlinePlan{
		inlinedInto: make(map[string]string),
		roots:       make(map[string]bool),
	}
	capable := func(id string) bool {
		n, ok := pc.Graph.Node(id)
		return ok && InlineCapable(n, pc.Impls[id])
	}

	for _, id := range pc.LoopOrder {
		if !capable(id) {
			continue
		}
		n, _ := pc.Graph.Node(id)
		sinks := n.Sinks[n.Outlets[0].ID]
		if len(sinks) == 1 && capable(sinks[0].NodeID) {
			plan.inlinedInto[id] = sinks[0].NodeID
		} else {
			plan.roots[id] = true
		}
	}
	return plan
}

// InlineExpression renders the nested expression computed by a root or an
// inlined node. Inlets fed by inlined nodes are replaced by their
// expressions, parenthesised when they contain whitespace.
func (pc *Precompilation) InlineExpression(id string, base node.Context) (string, error) {
	rec := pc.Records[id]
	n, _ := pc.Graph.Node(id)

	ins := rec.Ins.Entries()
	for _, inlet := range n.Inlets {
		if inlet.Kind != model.Signal {
			continue
		}
		for _, c := range n.Sources[inlet.ID] {
			if consumer, ok := pc.Inline.Consumer(c.NodeID); !ok || consumer != id {
				continue
			}
			expr, err := pc.InlineExpression(c.NodeID, base)
			if err != nil {
				return "", err
			}
			ins[inlet.ID] = parenthesize(expr)
		}
	}

	inlined, err := namespace.New(rec.Ins.Label(), ins)
	if err != nil {
		return "", err
	}
	ctx := pc.Context(id, base)
	ctx.Ins = inlined

	content, err := pc.Impls[id].GenerateLoopInline(ctx)
	if err != nil {
		return "", err
	}
	return render.Render(ctx.Macros, content)
}

// InlineStatement returns the assignment emitted by an inline root.
func (pc *Precompilation) InlineStatement(id string, base node.Context) (*ast.Container, error) {
	expr, err := pc.InlineExpression(id, base)
	if err != nil {
		return nil, err
	}
	out, err := pc.Records[id].Outs.Get(pc.mustNode(id).Outlets[0].ID)
	if err != nil {
		return nil, err
	}
	return ast.Build(out, " = ", expr), nil
}

func (pc *Precompilation) mustNode(id string) *model.Node {
	n, _ := pc.Graph.Node(id)
	return n
}

func parenthesize(expr string) string {
	if strings.ContainsAny(expr, " \t\n") {
		return "(" + expr + ")"
	}
	return expr
}

// LoopCode generates the per-frame code of a hot node. Inlined nodes
// produce nothing.
func (pc *Precompilation) LoopCode(id string, base node.Context) (*ast.Container, error) {
	if pc.Inline.IsInlined(id) {
		return nil, nil
	}
	if pc.Inline.IsRoot(id) {
		return pc.InlineStatement(id, base)
	}
	impl := pc.Impls[id]
	if impl.GenerateLoop == nil {
		n := pc.mustNode(id)
		return nil, &node.UnimplementedCapabilityError{NodeType: n.Type, NodeID: id, Reason: "no loop implementation for node type"}
	}
	return impl.GenerateLoop(pc.Context(id, base))
}
