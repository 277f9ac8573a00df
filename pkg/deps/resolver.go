package deps

import (
	"fmt"
	"strings"

	"github.com/ritzau/patchc/pkg/render"
)

// Flatten resolves defs depth-first, pre-order: the dependencies of a
// definition are emitted before its own code. The result is not
// deduplicated.
func Flatten(ctx Context, defs []GlobalCode) ([]string, error) {
	w := newWalker()
	var out []string
	err := w.walk(defs, func(def GlobalCode) error {
		var gen Generator
		switch d := def.(type) {
		case Plain:
			gen = Generator(d)
		case *WithSettings:
			gen = d.Generator
		}
		if gen == nil {
			return nil
		}
		code, err := render.Render(ctx.Macros, gen(ctx))
		if err != nil {
			return fmt.Errorf("rendering global code: %w", err)
		}
		out = append(out, code)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dedupe keeps the first occurrence of every fragment, preserving order.
// Empty fragments are dropped.
func Dedupe(fragments []string) []string {
	seen := make(map[string]bool, len(fragments))
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Resolve flattens, deduplicates and joins the code of defs with newlines.
func Resolve(ctx Context, defs []GlobalCode) (string, error) {
	fragments, err := Flatten(ctx, defs)
	if err != nil {
		return "", err
	}
	return strings.Join(Dedupe(fragments), "\n"), nil
}

// CollectImports gathers the imports of defs in resolution order, keeping
// the first declaration of each name.
func CollectImports(defs []GlobalCode) []Import {
	var out []Import
	seen := make(map[string]bool)
	_ = newWalker().walk(defs, func(def GlobalCode) error {
		if d, ok := def.(*WithSettings); ok {
			for _, imp := range d.Imports {
				if !seen[imp.Name] {
					seen[imp.Name] = true
					out = append(out, imp)
				}
			}
		}
		return nil
	})
	return out
}

// CollectExports gathers the exports of defs in resolution order, keeping
// the first declaration of each name.
func CollectExports(defs []GlobalCode) []Export {
	var out []Export
	seen := make(map[string]bool)
	_ = newWalker().walk(defs, func(def GlobalCode) error {
		if d, ok := def.(*WithSettings); ok {
			for _, exp := range d.Exports {
				if !seen[exp.Name] {
					seen[exp.Name] = true
					out = append(out, exp)
				}
			}
		}
		return nil
	})
	return out
}

// walker performs the pre-order traversal shared by Flatten and the
// collectors. It tracks the definitions on the current path so that a
// dependency cycle fails loudly instead of recursing forever.
type walker struct {
	onPath map[*WithSettings]bool
}

func newWalker() *walker {
	return &walker{onPath: make(map[*WithSettings]bool)}
}

func (w *walker) walk(defs []GlobalCode, visit func(GlobalCode) error) error {
	for _, def := range defs {
		switch d := def.(type) {
		case nil:
			continue
		case Plain:
			if err := visit(d); err != nil {
				return err
			}
		case *WithSettings:
			if d == nil {
				continue
			}
			if w.onPath[d] {
				// Definitions are static program data; a cycle is a bug.
				panic(fmt.Sprintf("deps: dependency cycle through global code %q", d.Name))
			}
			w.onPath[d] = true
			if err := w.walk(d.Dependencies, visit); err != nil {
				return err
			}
			delete(w.onPath, d)
			if err := visit(d); err != nil {
				return err
			}
		default:
			return fmt.Errorf("deps: unsupported global code definition %T", def)
		}
	}
	return nil
}
