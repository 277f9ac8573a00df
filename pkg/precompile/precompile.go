// Package precompile analyses a patch before code generation: it removes
// dead nodes, resolves how every portlet is wired, computes the declaration
// and per-frame traversal orders and decides which nodes are inlined.
package precompile

import (
	"fmt"
	"strings"

	"github.com/ritzau/patchc/pkg/graph"
	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/settings"
)

// Precompilation is the result of analysing one patch. It is owned by a
// single compilation and discarded afterwards.
type Precompilation struct {
	// Graph is the patch with dead nodes removed.
	Graph    *model.Graph
	Settings settings.Settings
	Globals  *namespace.Group

	Impls   map[string]*node.Implementation
	Records map[string]*node.Record

	DeclareOrder []string
	LoopOrder    []string
	Inline       *InlinePlan

	Senders         []Sender
	InletCallers    []InletCaller
	OutletListeners []OutletListener
}

// Sender is a synthesized function forwarding a message to several
// receivers.
type Sender struct {
	Name   string
	NodeID string
	Outlet string
	Calls  []string
}

// Body returns the sender's statements, one call per line.
func (s Sender) Body() string {
	lines := make([]string, len(s.Calls))
	for i, call := range s.Calls {
		lines[i] = call + "(m)"
	}
	return strings.Join(lines, "\n")
}

// InletCaller is an exported function letting the host send a message to
// an inlet.
type InletCaller struct {
	Name     string
	NodeID   string
	Inlet    string
	Receiver string
}

// OutletListener is a host function notified of messages sent from an
// outlet.
type OutletListener struct {
	Name   string
	NodeID string
	Outlet string
}

// InletCallerName names the exported function for an exposed inlet.
func InletCallerName(nodeID, inletID string) string {
	return "ioRcv_" + namespace.SanitizeIdentifier(nodeID) + "_" + namespace.SanitizeKey(inletID)
}

// OutletListenerName names the host function for an exposed outlet.
func OutletListenerName(nodeID, outletID string) string {
	return "ioSnd_" + namespace.SanitizeIdentifier(nodeID) + "_" + namespace.SanitizeKey(outletID)
}

// Run precompiles g.
func Run(g *model.Graph, registry *node.Registry, s settings.Settings, globals *namespace.Group) (*Precompilation, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	impls, err := lookupImplementations(g, registry)
	if err != nil {
		return nil, err
	}

	live := Trim(g, impls, s)
	logging.Debug("trimmed patch", "nodes", g.Len(), "live", live.Len())

	if err := claimIdentifiers(live); err != nil {
		return nil, err
	}
	if err := checkExposedPortlets(live, s); err != nil {
		return nil, err
	}

	pc := &Precompilation{
		Graph:    live,
		Settings: s,
		Globals:  globals,
		Impls:    impls,
		Records:  make(map[string]*node.Record, live.Len()),
	}

	pc.DeclareOrder = graph.FromPatch(live).StableOrder()

	loopOrder, err := loopOrder(live, impls)
	if err != nil {
		return nil, err
	}
	pc.LoopOrder = loopOrder

	wiring, err := wire(pc)
	if err != nil {
		return nil, err
	}
	if err := pc.buildRecords(wiring); err != nil {
		return nil, err
	}

	pc.Inline = planInlining(pc)
	return pc, nil
}

func lookupImplementations(g *model.Graph, registry *node.Registry) (map[string]*node.Implementation, error) {
	impls := make(map[string]*node.Implementation, g.Len())
	for _, n := range g.Nodes() {
		impl, err := registry.Lookup(n.Type)
		if err != nil {
			return nil, &node.UnimplementedCapabilityError{NodeType: n.Type, NodeID: n.ID, Reason: "unknown node type"}
		}
		impls[n.ID] = impl
	}
	return impls, nil
}

// Trim returns the part of g that can have an effect: the weakly connected
// components holding a sink node or a node exposed to the host.
func Trim(g *model.Graph, impls map[string]*node.Implementation, s settings.Settings) *model.Graph {
	exposed := make(map[string]bool)
	for _, id := range s.ExposedNodes() {
		exposed[id] = true
	}

	keep := make(map[string]bool, g.Len())
	for _, component := range graph.FromPatch(g).WeakComponents() {
		alive := false
		for _, id := range component {
			if impl := impls[id]; (impl != nil && impl.Sink) || exposed[id] {
				alive = true
				break
			}
		}
		if !alive {
			continue
		}
		for _, id := range component {
			keep[id] = true
		}
	}
	return g.Subgraph(keep)
}

// claimIdentifiers makes sure no two node ids map to the same identifier
// prefix.
func claimIdentifiers(g *model.Graph) error {
	reg := namespace.NewRegistry()
	for _, id := range g.Order() {
		if err := reg.Claim(namespace.SanitizeIdentifier(id), id); err != nil {
			return err
		}
	}
	return nil
}

func checkExposedPortlets(g *model.Graph, s settings.Settings) error {
	for _, id := range s.ExposedNodes() {
		n, ok := g.Node(id)
		if !ok {
			return &model.ValidationError{NodeID: id, Reason: "exposed node does not exist"}
		}
		for _, inletID := range s.IO.MessageReceivers[id] {
			if p, ok := n.Inlet(inletID); !ok || p.Kind != model.Message {
				return &model.ValidationError{NodeID: id, Portlet: inletID, Reason: "exposed inlet is not a message inlet"}
			}
		}
		for _, outletID := range s.IO.MessageSenders[id] {
			if p, ok := n.Outlet(outletID); !ok || p.Kind != model.Message {
				return &model.ValidationError{NodeID: id, Portlet: outletID, Reason: "exposed outlet is not a message outlet"}
			}
		}
	}
	return nil
}

func (pc *Precompilation) buildRecords(w *wiring) error {
	for _, id := range pc.DeclareOrder {
		n, _ := pc.Graph.Node(id)
		impl := pc.Impls[id]

		state := make(map[string]string, len(impl.StateVariables))
		for name := range impl.StateVariables {
			state[name] = namespace.NodeVariable(id, namespace.KindState, name)
		}

		rec := &node.Record{NodeID: id, Type: n.Type}
		var err error
		if rec.Ins, err = namespace.New(label(id, "ins"), w.ins[id]); err != nil {
			return err
		}
		if rec.Outs, err = namespace.New(label(id, "outs"), w.outs[id]); err != nil {
			return err
		}
		if rec.Rcvs, err = namespace.New(label(id, "rcvs"), w.rcvs[id]); err != nil {
			return err
		}
		if rec.Snds, err = namespace.New(label(id, "snds"), w.snds[id]); err != nil {
			return err
		}
		if rec.State, err = namespace.New(label(id, "state"), state); err != nil {
			return err
		}
		pc.Records[id] = rec
	}
	return nil
}

func label(nodeID, kind string) string {
	return fmt.Sprintf("node %q %s", nodeID, kind)
}

// Context returns the generator context of a node.
func (pc *Precompilation) Context(nodeID string, base node.Context) node.Context {
	rec := pc.Records[nodeID]
	n, _ := pc.Graph.Node(nodeID)
	ctx := base
	ctx.Globals = pc.Globals
	ctx.Settings = pc.Settings
	ctx.Node = n
	ctx.Record = rec
	ctx.State = rec.State
	ctx.Ins = rec.Ins
	ctx.Outs = rec.Outs
	ctx.Snds = rec.Snds
	ctx.Rcvs = rec.Rcvs
	return ctx
}

// IsHot reports whether the node runs every frame.
func IsHot(n *model.Node, impl *node.Implementation) bool {
	return n.HasSignalPortlet() || impl.GenerateLoop != nil || impl.GenerateLoopInline != nil
}
