// Package compile drives a compilation from a patch to target source code.
package compile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/precompile"
	"github.com/ritzau/patchc/pkg/render"
	"github.com/ritzau/patchc/pkg/settings"
	"github.com/ritzau/patchc/pkg/target"
)

// Result is the outcome of a compilation. Status is 0 on success and 1 on
// failure; a failed compilation never carries code.
type Result struct {
	Status int
	Code   string
	Err    error

	// ID identifies the compilation in logs.
	ID string
	// FailedIn is the state that raised Err.
	FailedIn State
	Stats    Stats
}

// Stats summarises what the compiler did with a patch.
type Stats struct {
	Target       string        `json:"target"`
	Nodes        int           `json:"nodes"`
	LiveNodes    int           `json:"liveNodes"`
	HotNodes     int           `json:"hotNodes"`
	InlinedNodes int           `json:"inlinedNodes"`
	Senders      int           `json:"senders"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether the compilation succeeded.
func (r Result) OK() bool {
	return r.Status == 0
}

// Compile compiles g with the node implementations of registry.
func Compile(g *model.Graph, registry *node.Registry, s settings.Settings) Result {
	return CompileContext(context.Background(), g, registry, s)
}

// CompileContext is Compile with a context carrying a request id for
// logging. Compilation itself does not block.
func CompileContext(ctx context.Context, g *model.Graph, registry *node.Registry, s settings.Settings) Result {
	c := &compilation{
		ctx:      ctx,
		id:       uuid.NewString(),
		graph:    g,
		registry: registry,
		settings: s,
	}
	start := time.Now()
	code, err := c.run()
	c.stats.Duration = time.Since(start)

	if err != nil {
		logging.WarnContext(ctx, "compilation failed", "compileID", c.id, "state", c.failedIn.String(), "error", err)
		return Result{Status: 1, Err: err, ID: c.id, FailedIn: c.failedIn, Stats: c.stats}
	}
	logging.DebugContext(ctx, "compilation done", "compileID", c.id, "bytes", len(code), "durationMs", c.stats.Duration.Milliseconds())
	return Result{Status: 0, Code: code, ID: c.id, Stats: c.stats}
}

type compilation struct {
	ctx      context.Context
	id       string
	graph    *model.Graph
	registry *node.Registry
	settings settings.Settings

	state    State
	failedIn State
	stats    Stats
}

func (c *compilation) enter(s State) {
	logging.TraceContext(c.ctx, "compile state", "compileID", c.id, "from", c.state.String(), "to", s.String())
	c.state = s
}

func (c *compilation) fail(err error) (string, error) {
	c.failedIn = c.state
	c.enter(Failed)
	return "", err
}

func (c *compilation) run() (string, error) {
	c.state = ValidatingSettings
	s := c.settings.WithDefaults()
	if err := s.Validate(); err != nil {
		return c.fail(err)
	}
	tgt, err := target.Get(s.Target)
	if err != nil {
		return c.fail(&settings.ConfigurationError{Field: "target", Reason: err.Error()})
	}
	if c.graph == nil || c.registry == nil {
		return c.fail(errors.New("compile: graph and registry are required"))
	}
	c.stats.Target = tgt.Name()
	c.stats.Nodes = c.graph.Len()

	c.enter(GeneratingNamespaces)
	globals, err := precompile.NewGlobals(s)
	if err != nil {
		return c.fail(err)
	}

	c.enter(Precompiling)
	pc, err := precompile.Run(c.graph, c.registry, s, globals)
	if err != nil {
		return c.fail(err)
	}
	c.collectStats(pc)

	c.enter(GeneratingPerNodeCode)
	base := node.Context{Macros: tgt, Target: tgt.Name()}
	if err := generateNodeCode(pc, base); err != nil {
		return c.fail(err)
	}

	c.enter(ResolvingDependencies)
	defs := dependencies(pc)
	depsCtx := deps.Context{Macros: tgt, Target: tgt.Name(), Globals: globals, Settings: s}
	globalCode, err := deps.Resolve(depsCtx, defs)
	if err != nil {
		return c.fail(err)
	}
	p := &program{
		target:     tgt,
		pc:         pc,
		globalCode: globalCode,
		imports:    append(deps.CollectImports(defs), listenerImports(pc)...),
		exports:    append(coreExports(pc), deps.CollectExports(defs)...),
	}

	c.enter(Rendering)
	tree, err := p.build()
	if err != nil {
		return c.fail(err)
	}
	code, err := render.Render(tgt, tree)
	if err != nil {
		return c.fail(err)
	}

	c.enter(Done)
	return code, nil
}

func (c *compilation) collectStats(pc *precompile.Precompilation) {
	c.stats.LiveNodes = pc.Graph.Len()
	c.stats.HotNodes = len(pc.LoopOrder)
	c.stats.Senders = len(pc.Senders)
	for _, id := range pc.LoopOrder {
		if pc.Inline.IsInlined(id) {
			c.stats.InlinedNodes++
		}
	}
}

// generateNodeCode runs the generators of every live node and stores the
// results in the node records.
func generateNodeCode(pc *precompile.Precompilation, base node.Context) error {
	for _, id := range pc.DeclareOrder {
		impl := pc.Impls[id]
		rec := pc.Records[id]
		ctx := pc.Context(id, base)

		if impl.GenerateDeclarations != nil {
			decl, err := impl.GenerateDeclarations(ctx)
			if err != nil {
				return fmt.Errorf("declarations of node %q: %w", id, err)
			}
			rec.Declarations = decl
		}

		receivers, err := messageReceivers(pc, id, ctx)
		if err != nil {
			return err
		}
		rec.MessageReceivers = receivers
	}

	for _, id := range pc.LoopOrder {
		loop, err := pc.LoopCode(id, base)
		if err != nil {
			return fmt.Errorf("loop of node %q: %w", id, err)
		}
		pc.Records[id].Loop = loop
	}
	return nil
}

// messageReceivers generates the receiver bodies of a node. Every inlet that
// got a receiver name must have a body.
func messageReceivers(pc *precompile.Precompilation, id string, ctx node.Context) (map[string]*ast.Container, error) {
	rec := pc.Records[id]
	if rec.Rcvs.Len() == 0 {
		return nil, nil
	}
	n := ctx.Node
	impl := pc.Impls[id]

	var bodies map[string]*ast.Container
	if impl.GenerateMessageReceivers != nil {
		var err error
		bodies, err = impl.GenerateMessageReceivers(ctx)
		if err != nil {
			return nil, fmt.Errorf("message receivers of node %q: %w", id, err)
		}
	}

	out := make(map[string]*ast.Container, rec.Rcvs.Len())
	for _, inlet := range n.Inlets {
		if !rec.Rcvs.Has(inlet.ID) {
			continue
		}
		body, ok := bodies[inlet.ID]
		if !ok {
			return nil, &node.UnimplementedCapabilityError{
				NodeType: n.Type,
				NodeID:   id,
				Portlet:  inlet.ID,
				Reason:   "no message receiver for wired inlet",
			}
		}
		out[inlet.ID] = body
	}
	return out, nil
}

// dependencies lists the global code of the node types in use, in declare
// order. The message runtime comes first when the program handles
// messages.
func dependencies(pc *precompile.Precompilation) []deps.GlobalCode {
	var defs []deps.GlobalCode
	if usesMessages(pc) {
		defs = append(defs, precompile.MessageRuntime)
	}
	seen := make(map[string]bool)
	for _, id := range pc.DeclareOrder {
		rec := pc.Records[id]
		if seen[rec.Type] {
			continue
		}
		seen[rec.Type] = true
		defs = append(defs, pc.Impls[id].Dependencies...)
	}
	return defs
}

func usesMessages(pc *precompile.Precompilation) bool {
	if len(pc.OutletListeners) > 0 {
		return true
	}
	for _, rec := range pc.Records {
		if rec.Rcvs.Len() > 0 {
			return true
		}
	}
	return false
}

func listenerImports(pc *precompile.Precompilation) []deps.Import {
	imports := make([]deps.Import, 0, len(pc.OutletListeners))
	for _, l := range pc.OutletListeners {
		imports = append(imports, deps.Import{
			Name:       l.Name,
			Args:       []*ast.VarDecl{ast.Arg("Message", "m")},
			ReturnType: "void",
		})
	}
	return imports
}

func coreExports(pc *precompile.Precompilation) []deps.Export {
	exports := []deps.Export{{Name: "configure"}, {Name: "loop"}}
	for _, caller := range pc.InletCallers {
		exports = append(exports, deps.Export{Name: caller.Name})
	}
	return exports
}
