package model

import (
	"fmt"
	"sort"
)

// PortletKind distinguishes continuously-updated signal ports from discrete
// message ports.
type PortletKind string

const (
	Signal  PortletKind = "signal"
	Message PortletKind = "message"
)

// Portlet is an inlet or outlet of a node.
type Portlet struct {
	ID   string      `json:"id"`
	Kind PortletKind `json:"kind"`
}

// Connection points at a portlet of another node.
type Connection struct {
	NodeID    string `json:"nodeId"`
	PortletID string `json:"portletId"`
}

// Node is a processing unit of the patch.
type Node struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Args    map[string]any `json:"args,omitempty"`
	Inlets  []Portlet      `json:"inlets"`
	Outlets []Portlet      `json:"outlets"`

	// Sinks lists, per outlet id, the connected inlets in connection order.
	Sinks map[string][]Connection `json:"sinks,omitempty"`
	// Sources lists, per inlet id, the connected outlets in connection order.
	Sources map[string][]Connection `json:"sources,omitempty"`
}

// Inlet returns the inlet with the given id.
func (n *Node) Inlet(id string) (Portlet, bool) {
	for _, p := range n.Inlets {
		if p.ID == id {
			return p, true
		}
	}
	return Portlet{}, false
}

// Outlet returns the outlet with the given id.
func (n *Node) Outlet(id string) (Portlet, bool) {
	for _, p := range n.Outlets {
		if p.ID == id {
			return p, true
		}
	}
	return Portlet{}, false
}

// HasSignalPortlet reports whether the node declares any signal inlet or
// outlet.
func (n *Node) HasSignalPortlet() bool {
	for _, p := range n.Inlets {
		if p.Kind == Signal {
			return true
		}
	}
	for _, p := range n.Outlets {
		if p.Kind == Signal {
			return true
		}
	}
	return false
}

// ArgFloat returns a numeric argument, or def when missing or not numeric.
func (n *Node) ArgFloat(name string, def float64) float64 {
	switch v := n.Args[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// ArgString returns a string argument, or def when missing.
func (n *Node) ArgString(name, def string) string {
	if v, ok := n.Args[name].(string); ok {
		return v
	}
	return def
}

// ValidationError reports a structurally invalid graph.
type ValidationError struct {
	NodeID  string
	Portlet string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Portlet != "" {
		return fmt.Sprintf("invalid graph: node %q portlet %q: %s", e.NodeID, e.Portlet, e.Reason)
	}
	if e.NodeID != "" {
		return fmt.Sprintf("invalid graph: node %q: %s", e.NodeID, e.Reason)
	}
	return "invalid graph: " + e.Reason
}

// Graph represents a patch: nodes keyed by id plus the order in which they
// were added. The insertion order breaks every tie in the compiler so that
// output is reproducible.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		order: make([]string, 0),
	}
}

// AddNode adds a node to the graph. Node ids and portlet ids must be unique.
func (g *Graph) AddNode(node *Node) error {
	if node.ID == "" {
		return &ValidationError{Reason: "node without id"}
	}
	if _, exists := g.nodes[node.ID]; exists {
		return &ValidationError{NodeID: node.ID, Reason: "duplicate node id"}
	}
	if err := checkUniquePortlets(node.ID, node.Inlets); err != nil {
		return err
	}
	if err := checkUniquePortlets(node.ID, node.Outlets); err != nil {
		return err
	}
	if node.Args == nil {
		node.Args = make(map[string]any)
	}
	if node.Sinks == nil {
		node.Sinks = make(map[string][]Connection)
	}
	if node.Sources == nil {
		node.Sources = make(map[string][]Connection)
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

func checkUniquePortlets(nodeID string, portlets []Portlet) error {
	seen := make(map[string]bool, len(portlets))
	for _, p := range portlets {
		if seen[p.ID] {
			return &ValidationError{NodeID: nodeID, Portlet: p.ID, Reason: "duplicate portlet id"}
		}
		if p.Kind != Signal && p.Kind != Message {
			return &ValidationError{NodeID: nodeID, Portlet: p.ID, Reason: fmt.Sprintf("unknown portlet kind %q", p.Kind)}
		}
		seen[p.ID] = true
	}
	return nil
}

// Connect wires outlet of source to inlet of sink.
func (g *Graph) Connect(sourceID, outletID, sinkID, inletID string) error {
	source, ok := g.nodes[sourceID]
	if !ok {
		return &ValidationError{NodeID: sourceID, Reason: "connection from unknown node"}
	}
	sink, ok := g.nodes[sinkID]
	if !ok {
		return &ValidationError{NodeID: sinkID, Reason: "connection to unknown node"}
	}
	outlet, ok := source.Outlet(outletID)
	if !ok {
		return &ValidationError{NodeID: sourceID, Portlet: outletID, Reason: "unknown outlet"}
	}
	inlet, ok := sink.Inlet(inletID)
	if !ok {
		return &ValidationError{NodeID: sinkID, Portlet: inletID, Reason: "unknown inlet"}
	}
	if outlet.Kind != inlet.Kind {
		return &ValidationError{
			NodeID:  sinkID,
			Portlet: inletID,
			Reason:  fmt.Sprintf("cannot connect %s outlet %s:%s to %s inlet", outlet.Kind, sourceID, outletID, inlet.Kind),
		}
	}
	for _, c := range source.Sinks[outletID] {
		if c.NodeID == sinkID && c.PortletID == inletID {
			return &ValidationError{NodeID: sinkID, Portlet: inletID, Reason: fmt.Sprintf("duplicate connection from %s:%s", sourceID, outletID)}
		}
	}
	// Summing several signals into one inlet is not supported.
	if inlet.Kind == Signal && len(sink.Sources[inletID]) > 0 {
		return &ValidationError{NodeID: sinkID, Portlet: inletID, Reason: "signal inlet has more than one source"}
	}

	source.Sinks[outletID] = append(source.Sinks[outletID], Connection{NodeID: sinkID, PortletID: inletID})
	sink.Sources[inletID] = append(sink.Sources[inletID], Connection{NodeID: sourceID, PortletID: outletID})
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Order returns the node ids in insertion order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Index returns the insertion position of the node, or -1.
func (g *Graph) Index(id string) int {
	for i, nid := range g.order {
		if nid == id {
			return i
		}
	}
	return -1
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Subgraph returns a graph restricted to the given node ids, keeping the
// original insertion order and only the connections between kept nodes.
// Node values are copied so the receiver is left untouched.
func (g *Graph) Subgraph(keep map[string]bool) *Graph {
	sub := NewGraph()
	for _, id := range g.order {
		if !keep[id] {
			continue
		}
		n := g.nodes[id]
		cp := &Node{
			ID:      n.ID,
			Type:    n.Type,
			Args:    n.Args,
			Inlets:  n.Inlets,
			Outlets: n.Outlets,
			Sinks:   filterConnections(n.Sinks, keep),
			Sources: filterConnections(n.Sources, keep),
		}
		sub.nodes[id] = cp
		sub.order = append(sub.order, id)
	}
	return sub
}

func filterConnections(in map[string][]Connection, keep map[string]bool) map[string][]Connection {
	out := make(map[string][]Connection, len(in))
	for portlet, conns := range in {
		var kept []Connection
		for _, c := range conns {
			if keep[c.NodeID] {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			out[portlet] = kept
		}
	}
	return out
}

// Validate re-checks the structural invariants of a graph whose nodes were
// populated directly rather than through Connect. Every Sinks entry must be
// mirrored by a Sources entry on the other node and vice versa, and both
// ends of a connection must have the same kind.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		n := g.nodes[id]
		for _, inletID := range sortedKeys(n.Sources) {
			inlet, ok := n.Inlet(inletID)
			if !ok {
				return &ValidationError{NodeID: id, Portlet: inletID, Reason: "connection to unknown inlet"}
			}
			if inlet.Kind == Signal && len(n.Sources[inletID]) > 1 {
				return &ValidationError{NodeID: id, Portlet: inletID, Reason: "signal inlet has more than one source"}
			}
			for _, c := range n.Sources[inletID] {
				src, ok := g.nodes[c.NodeID]
				if !ok {
					return &ValidationError{NodeID: id, Portlet: inletID, Reason: fmt.Sprintf("connection from unknown node %q", c.NodeID)}
				}
				outlet, ok := src.Outlet(c.PortletID)
				if !ok {
					return &ValidationError{NodeID: id, Portlet: inletID, Reason: fmt.Sprintf("connection from unknown outlet %s:%s", c.NodeID, c.PortletID)}
				}
				if outlet.Kind != inlet.Kind {
					return &ValidationError{NodeID: id, Portlet: inletID, Reason: fmt.Sprintf("cannot connect %s outlet %s:%s to %s inlet", outlet.Kind, c.NodeID, c.PortletID, inlet.Kind)}
				}
				if !hasConnection(src.Sinks[c.PortletID], id, inletID) {
					return &ValidationError{NodeID: id, Portlet: inletID, Reason: fmt.Sprintf("source %s:%s does not list this inlet as a sink", c.NodeID, c.PortletID)}
				}
			}
		}
		for _, outletID := range sortedKeys(n.Sinks) {
			outlet, ok := n.Outlet(outletID)
			if !ok {
				return &ValidationError{NodeID: id, Portlet: outletID, Reason: "connection from unknown outlet"}
			}
			for _, c := range n.Sinks[outletID] {
				sink, ok := g.nodes[c.NodeID]
				if !ok {
					return &ValidationError{NodeID: id, Portlet: outletID, Reason: fmt.Sprintf("connection to unknown node %q", c.NodeID)}
				}
				inlet, ok := sink.Inlet(c.PortletID)
				if !ok {
					return &ValidationError{NodeID: id, Portlet: outletID, Reason: fmt.Sprintf("connection to unknown inlet %s:%s", c.NodeID, c.PortletID)}
				}
				if outlet.Kind != inlet.Kind {
					return &ValidationError{NodeID: id, Portlet: outletID, Reason: fmt.Sprintf("cannot connect %s outlet to %s inlet %s:%s", outlet.Kind, inlet.Kind, c.NodeID, c.PortletID)}
				}
				if !hasConnection(sink.Sources[c.PortletID], id, outletID) {
					return &ValidationError{NodeID: id, Portlet: outletID, Reason: fmt.Sprintf("sink %s:%s does not list this outlet as a source", c.NodeID, c.PortletID)}
				}
			}
		}
	}
	return nil
}

func hasConnection(conns []Connection, nodeID, portletID string) bool {
	for _, c := range conns {
		if c.NodeID == nodeID && c.PortletID == portletID {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]Connection) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
