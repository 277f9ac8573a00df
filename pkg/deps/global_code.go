// Package deps resolves the global library code pulled in by node
// implementations. Definitions may depend on other definitions; resolution
// emits dependencies before dependents and keeps each distinct fragment
// once.
package deps

import (
	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/render"
	"github.com/ritzau/patchc/pkg/settings"
)

// Context is handed to every global code generator.
type Context struct {
	Macros   render.Macros
	Target   string
	Globals  *namespace.Group
	Settings settings.Settings
}

// Generator produces the code of one global definition.
type Generator func(ctx Context) *ast.Container

// GlobalCode is either a Plain generator or a *WithSettings record.
type GlobalCode interface {
	globalCode()
}

// Plain is a bare generator without dependencies, imports or exports.
type Plain Generator

func (Plain) globalCode() {}

// WithSettings is a generator together with the definitions it depends on
// and the host functions it imports or exports.
type WithSettings struct {
	Name         string
	Generator    Generator
	Dependencies []GlobalCode
	Imports      []Import
	Exports      []Export
}

func (*WithSettings) globalCode() {}

// Import declares a function provided by the host.
type Import struct {
	Name       string
	Args       []*ast.VarDecl
	ReturnType string
}

// Export declares a function exposed to the host.
type Export struct {
	Name string
}
