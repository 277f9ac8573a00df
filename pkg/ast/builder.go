package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// accumulator collects builder output. Text is buffered in pendingText until
// a non-text element arrives, so adjacent text always ends up in one entry.
type accumulator struct {
	pendingText strings.Builder
	finished    []Content
}

func (a *accumulator) pushText(s string) {
	a.pendingText.WriteString(s)
}

func (a *accumulator) pushElement(c Content) {
	a.flush()
	a.finished = append(a.finished, c)
}

func (a *accumulator) flush() {
	if a.pendingText.Len() == 0 {
		return
	}
	a.finished = append(a.finished, Text(a.pendingText.String()))
	a.pendingText.Reset()
}

func (a *accumulator) container() *Container {
	a.flush()
	return &Container{Content: a.finished}
}

// push flattens one builder input into the accumulator.
func (a *accumulator) push(part any) {
	switch v := part.(type) {
	case nil:
	case string:
		a.pushText(v)
	case Text:
		a.pushText(string(v))
	case *Container:
		if v == nil {
			return
		}
		for _, c := range v.Content {
			a.push(c)
		}
	case Content:
		if isNilContent(v) {
			return
		}
		a.pushElement(v)
	case int:
		a.pushText(strconv.Itoa(v))
	case int64:
		a.pushText(strconv.FormatInt(v, 10))
	case int32:
		a.pushText(strconv.FormatInt(int64(v), 10))
	case float64:
		a.pushText(FormatNumber(v))
	case float32:
		a.pushText(FormatNumber(float64(v)))
	case []any:
		for _, p := range v {
			a.push(p)
		}
	case []string:
		for _, p := range v {
			a.pushText(p)
		}
	case []Content:
		for _, p := range v {
			a.push(p)
		}
	case []*Container:
		for _, p := range v {
			a.push(p)
		}
	case fmt.Stringer:
		a.pushText(v.String())
	default:
		a.pushText(fmt.Sprint(v))
	}
}

func isNilContent(c Content) bool {
	switch v := c.(type) {
	case *VarDecl:
		return v == nil
	case *ConstVarDecl:
		return v == nil
	case *FuncDecl:
		return v == nil
	case *ClassDecl:
		return v == nil
	}
	return false
}

// FormatNumber stringifies a number using the shortest representation that
// round-trips, so 1 renders as "1" and 0.5 as "0.5".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Build composes a Container from a template-like sequence of parts. Strings
// are literal code, numbers are stringified, nil is dropped, slices are
// flattened recursively and IR elements are inserted as-is (containers are
// spliced into the result).
func Build(parts ...any) *Container {
	var acc accumulator
	for _, p := range parts {
		acc.push(p)
	}
	return acc.container()
}

// Join builds a Container from parts separated by sep. Parts that build to
// empty content are skipped and do not produce a separator.
func Join(parts []*Container, sep string) *Container {
	var acc accumulator
	first := true
	for _, p := range parts {
		if p.Empty() {
			continue
		}
		if !first {
			acc.pushText(sep)
		}
		acc.push(p)
		first = false
	}
	return acc.container()
}

// Lines is Join with a newline separator.
func Lines(parts ...*Container) *Container {
	return Join(parts, "\n")
}

func initializer(value any) *Container {
	if value == nil {
		return nil
	}
	if c, ok := value.(*Container); ok && c == nil {
		return nil
	}
	return Build(value)
}

// Var builds a variable declaration. A nil value declares the variable
// without an initializer.
func Var(typ, name string, value any) *VarDecl {
	return &VarDecl{Type: typ, Name: name, Value: initializer(value)}
}

// ConstVar builds a constant declaration.
func ConstVar(typ, name string, value any) *ConstVarDecl {
	return &ConstVarDecl{Type: typ, Name: name, Value: initializer(value)}
}

// Arg is a shorthand for an initializer-less Var used as a function argument
// or class member.
func Arg(typ, name string) *VarDecl {
	return Var(typ, name, nil)
}

// Func builds a function declaration; body parts follow Build's rules.
func Func(name string, args []*VarDecl, returnType string, body ...any) *FuncDecl {
	return &FuncDecl{
		Name:       name,
		Args:       args,
		ReturnType: returnType,
		Body:       Build(body...),
	}
}

// Class builds a class declaration.
func Class(name string, members ...*VarDecl) *ClassDecl {
	return &ClassDecl{Name: name, Members: members}
}
