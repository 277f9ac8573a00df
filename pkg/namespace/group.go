package namespace

import (
	"encoding/json"
	"sort"
)

// Group is a labelled collection of child namespaces, e.g. the global
// identifiers split into "core", "msg", "arrays" and "io".
type Group struct {
	label    string
	children map[string]*Namespace
}

// NewGroup builds a group. Child names follow the same key rules as
// namespace keys.
func NewGroup(label string, children map[string]*Namespace) (*Group, error) {
	copied := make(map[string]*Namespace, len(children))
	for name, ns := range children {
		if !ValidKey(name) {
			return nil, &NamespaceError{Label: label, Key: name, Reason: "invalid key"}
		}
		copied[name] = ns
	}
	return &Group{label: label, children: copied}, nil
}

// Label returns the group label.
func (g *Group) Label() string {
	return g.label
}

// Child returns the named child namespace.
func (g *Group) Child(name string) (*Namespace, error) {
	if ns, ok := g.children[name]; ok {
		return ns, nil
	}
	return nil, &NamespaceError{Label: g.label, Key: name}
}

// Get looks up key inside the named child.
func (g *Group) Get(child, key string) (string, error) {
	ns, err := g.Child(child)
	if err != nil {
		return "", err
	}
	return ns.Get(key)
}

// Names returns the child names in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.children))
	for name := range g.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON serializes the children keyed by name.
func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.children)
}
