package node

import (
	"fmt"
	"sort"

	"github.com/ritzau/patchc/pkg/model"
)

// Registry maps node type tags to implementations.
type Registry struct {
	impls map[string]*Implementation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{impls: make(map[string]*Implementation)}
}

// Register adds an implementation. Registering a type twice is an error.
func (r *Registry) Register(nodeType string, impl *Implementation) error {
	if nodeType == "" {
		return fmt.Errorf("node type must not be empty")
	}
	if impl == nil {
		return fmt.Errorf("nil implementation for node type %q", nodeType)
	}
	if _, exists := r.impls[nodeType]; exists {
		return fmt.Errorf("node type %q already registered", nodeType)
	}
	r.impls[nodeType] = impl
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(nodeType string, impl *Implementation) {
	if err := r.Register(nodeType, impl); err != nil {
		panic(err)
	}
}

// Lookup returns the implementation of nodeType.
func (r *Registry) Lookup(nodeType string) (*Implementation, error) {
	impl, ok := r.impls[nodeType]
	if !ok {
		return nil, &UnimplementedCapabilityError{NodeType: nodeType, Reason: "unknown node type"}
	}
	return impl, nil
}

// Types returns the registered node types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.impls))
	for t := range r.impls {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewNode creates a node of nodeType with the default portlet layout of its
// implementation.
func (r *Registry) NewNode(id, nodeType string, args map[string]any) (*model.Node, error) {
	impl, err := r.Lookup(nodeType)
	if err != nil {
		return nil, err
	}
	n := &model.Node{ID: id, Type: nodeType, Args: args}
	if impl.Portlets != nil {
		n.Inlets, n.Outlets = impl.Portlets(args)
	}
	return n, nil
}
