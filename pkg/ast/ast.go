// Package ast defines the target-agnostic intermediate representation used by
// the code generator. Node implementations compose these elements with the
// builder functions; the render package turns them into target source text.
package ast

// Kind identifies the variant of a Content element.
type Kind int

const (
	KindText Kind = iota
	KindContainer
	KindVar
	KindConstVar
	KindFunc
	KindClass
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindContainer:
		return "Container"
	case KindVar:
		return "Var"
	case KindConstVar:
		return "ConstVar"
	case KindFunc:
		return "Func"
	case KindClass:
		return "Class"
	default:
		return "Unknown"
	}
}

// Content is one element of the IR tree.
type Content interface {
	Kind() Kind
}

// Text is a literal chunk of source code.
type Text string

func (Text) Kind() Kind { return KindText }

// Container is an ordered list of content. Containers built by this package
// never hold two adjacent Text entries, empty Text entries or nested
// Containers.
type Container struct {
	Content []Content
}

func (*Container) Kind() Kind { return KindContainer }

// Empty reports whether the container holds no content.
func (c *Container) Empty() bool {
	return c == nil || len(c.Content) == 0
}

// VarDecl declares a mutable variable. Value is nil when the variable has no
// initializer.
type VarDecl struct {
	Type  string
	Name  string
	Value *Container
}

func (*VarDecl) Kind() Kind { return KindVar }

// ConstVarDecl declares an immutable variable.
type ConstVarDecl struct {
	Type  string
	Name  string
	Value *Container
}

func (*ConstVarDecl) Kind() Kind { return KindConstVar }

// FuncDecl declares a function with typed arguments.
type FuncDecl struct {
	Name       string
	Args       []*VarDecl
	ReturnType string
	Body       *Container
}

func (*FuncDecl) Kind() Kind { return KindFunc }

// ClassDecl declares a record type with typed members.
type ClassDecl struct {
	Name    string
	Members []*VarDecl
}

func (*ClassDecl) Kind() Kind { return KindClass }
