// Package target holds the backends the compiler can emit code for. A target
// supplies the four declaration macros used by the renderer plus the
// rendering of its type preamble and host imports/exports. Statement syntax
// (assignments, calls, loops) is shared by all targets and written directly
// by the code generators.
package target

import (
	"fmt"
	"sort"

	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/render"
	"github.com/ritzau/patchc/pkg/settings"
)

// Target is a code generation backend.
type Target interface {
	render.Macros

	// Name returns the target name used in settings.
	Name() string
	// Preamble returns the type aliases the generated program relies on.
	Preamble(bitDepth int) string
	// Imports renders declarations for host-provided functions.
	Imports(imports []deps.Import) string
	// Exports renders declarations for functions exposed to the host.
	Exports(exports []deps.Export) string
}

var targets = map[string]func() Target{
	settings.TargetScripting: func() Target { return Scripting{} },
	settings.TargetSystems:   func() Target { return Systems{} },
}

// Get returns the target with the given name.
func Get(name string) (Target, error) {
	factory, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q", name)
	}
	return factory(), nil
}

// Available returns the names of all targets, sorted.
func Available() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func floatArrayType(bitDepth int) string {
	if bitDepth == 32 {
		return "Float32Array"
	}
	return "Float64Array"
}

// initializer renders " = value", or nothing for a declaration without a
// value.
func initializer(value string) string {
	if value == "" {
		return ""
	}
	return " = " + value
}
