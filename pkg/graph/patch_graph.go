// Package graph provides a gonum-backed directed view of a patch used for
// ordering and reachability questions.
package graph

import (
	"sort"

	"github.com/ritzau/patchc/pkg/model"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// PatchGraph is a directed graph over patch node ids. The gonum id of a
// node is its insertion position, so ordering by id is ordering by
// insertion.
type PatchGraph struct {
	graph     *simple.DirectedGraph
	names     []string
	ids       map[string]int64
	selfLoops map[string]bool
}

// New creates an empty patch graph.
func New() *PatchGraph {
	return &PatchGraph{
		graph:     simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		selfLoops: make(map[string]bool),
	}
}

// FromPatch builds the graph of all nodes of g and the connections whose
// outlet kind is one of kinds. Without kinds every connection is included.
func FromPatch(g *model.Graph, kinds ...model.PortletKind) *PatchGraph {
	pg := New()
	for _, n := range g.Nodes() {
		pg.AddNode(n.ID)
	}
	for _, n := range g.Nodes() {
		for _, outlet := range n.Outlets {
			if !includesKind(kinds, outlet.Kind) {
				continue
			}
			for _, c := range n.Sinks[outlet.ID] {
				pg.AddEdge(n.ID, c.NodeID)
			}
		}
	}
	return pg
}

func includesKind(kinds []model.PortletKind, kind model.PortletKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AddNode adds a node. Adding an existing node is a no-op.
func (pg *PatchGraph) AddNode(name string) {
	if _, exists := pg.ids[name]; exists {
		return
	}
	id := int64(len(pg.names))
	pg.ids[name] = id
	pg.names = append(pg.names, name)
	pg.graph.AddNode(simple.Node(id))
}

// AddEdge adds an edge, adding missing nodes first. Self edges are tracked
// separately since the simple graph cannot hold them.
func (pg *PatchGraph) AddEdge(from, to string) {
	pg.AddNode(from)
	pg.AddNode(to)

	if from == to {
		pg.selfLoops[from] = true
		return
	}
	fromID, toID := pg.ids[from], pg.ids[to]
	if !pg.graph.HasEdgeFromTo(fromID, toID) {
		pg.graph.SetEdge(pg.graph.NewEdge(pg.graph.Node(fromID), pg.graph.Node(toID)))
	}
}

// Graph returns the underlying directed graph.
func (pg *PatchGraph) Graph() graph.Directed {
	return pg.graph
}

// Name returns the patch node id of a gonum node id.
func (pg *PatchGraph) Name(id int64) string {
	if id < 0 || int(id) >= len(pg.names) {
		return ""
	}
	return pg.names[id]
}

// ID returns the gonum node id of a patch node.
func (pg *PatchGraph) ID(name string) (int64, bool) {
	id, ok := pg.ids[name]
	return id, ok
}

// Len returns the number of nodes.
func (pg *PatchGraph) Len() int {
	return len(pg.names)
}

// HasSelfLoop reports whether the node is connected to itself.
func (pg *PatchGraph) HasSelfLoop(name string) bool {
	return pg.selfLoops[name]
}

// SelfLoops returns the nodes connected to themselves, in insertion order.
func (pg *PatchGraph) SelfLoops() []string {
	var out []string
	for _, name := range pg.names {
		if pg.selfLoops[name] {
			out = append(out, name)
		}
	}
	return out
}

// Successors returns the direct successors of a node in insertion order.
func (pg *PatchGraph) Successors(name string) []string {
	id, ok := pg.ids[name]
	if !ok {
		return nil
	}
	ids := idsOf(pg.graph.From(id))
	out := make([]string, len(ids))
	for i, sid := range ids {
		out[i] = pg.names[sid]
	}
	return out
}

// StableOrder returns every node in topological order, sources first. Among
// nodes whose predecessors are all placed, the earliest inserted goes next.
// Cycles are condensed: the members of a strongly connected component are
// placed together in insertion order, at the position of the member that
// was inserted first.
func (pg *PatchGraph) StableOrder() []string {
	condensed, members := pg.condense()

	// A component's gonum id is its first member's insertion position.
	inDegree := make(map[int64]int, len(members))
	var ready []int64
	nodes := condensed.Nodes()
	for nodes.Next() {
		id := nodes.Node().ID()
		inDegree[id] = condensed.To(id).Len()
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, pg.Len())
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool { return ready[a] < ready[b] })
		next := ready[0]
		ready = ready[1:]
		for _, id := range members[next] {
			order = append(order, pg.names[id])
		}
		for _, to := range idsOf(condensed.From(next)) {
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return order
}

// condense returns the condensation of the graph: one node per strongly
// connected component, identified by its first member, and the members of
// each component in insertion order.
func (pg *PatchGraph) condense() (*simple.DirectedGraph, map[int64][]int64) {
	condensed := simple.NewDirectedGraph()
	component := make(map[int64]int64, pg.Len())
	members := make(map[int64][]int64)
	for _, scc := range topo.TarjanSCC(pg.graph) {
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		for _, id := range ids {
			component[id] = ids[0]
		}
		members[ids[0]] = ids
		condensed.AddNode(simple.Node(ids[0]))
	}

	edges := pg.graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		from, to := component[e.From().ID()], component[e.To().ID()]
		if from != to && !condensed.HasEdgeFromTo(from, to) {
			condensed.SetEdge(condensed.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}
	return condensed, members
}

// WeakComponents returns the weakly connected components, each in insertion
// order, sorted by their first member.
func (pg *PatchGraph) WeakComponents() [][]string {
	undirected := simple.NewUndirectedGraph()
	nodes := pg.graph.Nodes()
	for nodes.Next() {
		undirected.AddNode(simple.Node(nodes.Node().ID()))
	}
	edges := pg.graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		if !undirected.HasEdgeBetween(e.From().ID(), e.To().ID()) {
			undirected.SetEdge(undirected.NewEdge(e.From(), e.To()))
		}
	}

	components := topo.ConnectedComponents(undirected)
	out := make([][]string, 0, len(components))
	for _, component := range components {
		ids := make([]int64, len(component))
		for i, n := range component {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = pg.names[id]
		}
		out = append(out, names)
	}
	sort.Slice(out, func(a, b int) bool { return pg.ids[out[a][0]] < pg.ids[out[b][0]] })
	return out
}

func idsOf(it graph.Nodes) []int64 {
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}
