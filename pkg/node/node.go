// Package node defines the contract between the compiler and the node types
// it knows how to generate code for.
package node

import (
	"fmt"

	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/render"
	"github.com/ritzau/patchc/pkg/settings"
)

// StateVariable is a per-node storage slot. Init is a number or literal
// code for the initial value.
type StateVariable struct {
	Type string
	Init any
}

// Generator produces IR for one node.
type Generator func(ctx Context) (*ast.Container, error)

// ReceiversGenerator produces one message receiver body per inlet id. The
// body receives the message as "m" and must return when it handles it.
type ReceiversGenerator func(ctx Context) (map[string]*ast.Container, error)

// PortletsFunc returns the default portlet layout for a node with the given
// arguments. It is used by loaders when a patch omits the layout.
type PortletsFunc func(args map[string]any) (inlets, outlets []model.Portlet)

// Implementation describes how to generate code for a node type. Every
// capability is optional.
type Implementation struct {
	StateVariables map[string]StateVariable

	GenerateDeclarations     Generator
	GenerateLoop             Generator
	GenerateLoopInline       Generator
	GenerateMessageReceivers ReceiversGenerator

	Dependencies []deps.GlobalCode

	// Sink marks nodes with an effect outside the graph (audio output,
	// logging). Components without a sink are removed before compilation.
	Sink bool

	Portlets PortletsFunc
}

// Record holds everything the precompiler resolved for one node, plus the
// code generated for it.
type Record struct {
	NodeID string
	Type   string

	Ins   *namespace.Namespace
	Outs  *namespace.Namespace
	Rcvs  *namespace.Namespace
	Snds  *namespace.Namespace
	State *namespace.Namespace

	Declarations     *ast.Container
	Loop             *ast.Container
	MessageReceivers map[string]*ast.Container
}

// Context is handed to the generators of an Implementation.
type Context struct {
	Macros   render.Macros
	Target   string
	Globals  *namespace.Group
	State    *namespace.Namespace
	Ins      *namespace.Namespace
	Outs     *namespace.Namespace
	Snds     *namespace.Namespace
	Rcvs     *namespace.Namespace
	Node     *model.Node
	Record   *Record
	Settings settings.Settings
}

// Global looks up an identifier in one of the global namespaces.
func (c Context) Global(child, key string) (string, error) {
	return c.Globals.Get(child, key)
}

// UnimplementedCapabilityError reports a node type that lacks a generator
// it needs for the way it is wired.
type UnimplementedCapabilityError struct {
	NodeType string
	NodeID   string
	Portlet  string
	Reason   string
}

func (e *UnimplementedCapabilityError) Error() string {
	msg := fmt.Sprintf("node type %q", e.NodeType)
	if e.NodeID != "" {
		msg += fmt.Sprintf(", id %q", e.NodeID)
	}
	if e.Portlet != "" {
		msg += fmt.Sprintf(", portlet %q", e.Portlet)
	}
	return msg + ": " + e.Reason
}
