// Package render turns IR trees into target source text. It has no knowledge
// of any target: declaration syntax is delegated to an injected Macros set.
package render

import (
	"fmt"
	"strings"

	"github.com/ritzau/patchc/pkg/ast"
)

// Macros renders declarations for one target.
type Macros interface {
	Var(decl *ast.VarDecl, value string) string
	ConstVar(decl *ast.ConstVarDecl, value string) string
	Func(decl *ast.FuncDecl, body string) string
	Class(decl *ast.ClassDecl) string
}

// AstStructureError is returned when the renderer meets an element it does
// not know. Trees built only with the ast constructors never trigger it.
type AstStructureError struct {
	Element ast.Content
}

func (e *AstStructureError) Error() string {
	return fmt.Sprintf("invalid IR structure: unexpected element %T", e.Element)
}

// Render renders a container left to right and concatenates the results.
func Render(m Macros, c *ast.Container) (string, error) {
	if c == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := renderInto(&sb, m, c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderContent renders a single element.
func RenderContent(m Macros, content ast.Content) (string, error) {
	var sb strings.Builder
	if err := renderInto(&sb, m, content); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderInto(sb *strings.Builder, m Macros, content ast.Content) error {
	switch el := content.(type) {
	case ast.Text:
		sb.WriteString(string(el))

	case *ast.Container:
		if el == nil {
			return nil
		}
		for _, child := range el.Content {
			if err := renderInto(sb, m, child); err != nil {
				return err
			}
		}

	case *ast.VarDecl:
		value, err := Render(m, el.Value)
		if err != nil {
			return err
		}
		sb.WriteString(m.Var(el, value))

	case *ast.ConstVarDecl:
		value, err := Render(m, el.Value)
		if err != nil {
			return err
		}
		sb.WriteString(m.ConstVar(el, value))

	case *ast.FuncDecl:
		body, err := Render(m, el.Body)
		if err != nil {
			return err
		}
		sb.WriteString(m.Func(el, body))

	case *ast.ClassDecl:
		sb.WriteString(m.Class(el))

	default:
		return &AstStructureError{Element: content}
	}
	return nil
}
