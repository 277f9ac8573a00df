package precompile

import (
	"github.com/ritzau/patchc/pkg/ast"
	"github.com/ritzau/patchc/pkg/deps"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/settings"
)

// Global namespace children.
const (
	GlobalsCore   = "core"
	GlobalsMsg    = "msg"
	GlobalsArrays = "arrays"
	GlobalsIO     = "io"
)

// Core global identifiers.
const (
	SampleRate          = "SAMPLE_RATE"
	BlockSize           = "BLOCK_SIZE"
	Frame               = "FRAME"
	Input               = "INPUT"
	Output              = "OUTPUT"
	NullSignal          = "NULL_SIGNAL"
	NullMessageReceiver = "NULL_MESSAGE_RECEIVER"
)

// MessageFunctions maps the keys of the msg namespace to the host functions
// that implement the message codec.
var MessageFunctions = map[string]string{
	"Message":        "Message",
	"display":        "msg_display",
	"isBang":         "msg_isBang",
	"isFloatToken":   "msg_isFloatToken",
	"readFloatToken": "msg_readFloatToken",
	"floats":         "msg_floats",
	"bang":           "msg_bang",
}

// MessageRuntime declares the message codec functions provided by the host.
// Every program with a message receiver depends on it.
var MessageRuntime = &deps.WithSettings{
	Name: "msg",
	Imports: []deps.Import{
		{Name: "msg_display", Args: []*ast.VarDecl{ast.Arg("Message", "m")}, ReturnType: "string"},
		{Name: "msg_isBang", Args: []*ast.VarDecl{ast.Arg("Message", "m")}, ReturnType: "bool"},
		{Name: "msg_isFloatToken", Args: []*ast.VarDecl{ast.Arg("Message", "m"), ast.Arg("Int", "i")}, ReturnType: "bool"},
		{Name: "msg_readFloatToken", Args: []*ast.VarDecl{ast.Arg("Message", "m"), ast.Arg("Int", "i")}, ReturnType: "Float"},
		{Name: "msg_floats", Args: []*ast.VarDecl{ast.Arg("Float[]", "values")}, ReturnType: "Message"},
		{Name: "msg_bang", ReturnType: "Message"},
	},
}

// ArrayVariable names the global holding a settings array.
func ArrayVariable(name string) string {
	return "ARRAY_" + name
}

// NewGlobals builds the global namespaces for a compilation. The io child
// holds the inlet callers and outlet listeners of the exposed portlets,
// keyed by their own names.
func NewGlobals(s settings.Settings) (*namespace.Group, error) {
	core, err := namespace.New("globals.core", map[string]string{
		SampleRate:          SampleRate,
		BlockSize:           BlockSize,
		Frame:               Frame,
		Input:               Input,
		Output:              Output,
		NullSignal:          NullSignal,
		NullMessageReceiver: NullMessageReceiver,
	})
	if err != nil {
		return nil, err
	}

	msg, err := namespace.New("globals.msg", MessageFunctions)
	if err != nil {
		return nil, err
	}

	arrays := make(map[string]string, len(s.Arrays))
	for _, name := range s.ArrayNames() {
		arrays[name] = ArrayVariable(name)
	}
	arrayNS, err := namespace.New("globals.arrays", arrays)
	if err != nil {
		return nil, err
	}

	io := make(map[string]string)
	for nodeID, inlets := range s.IO.MessageReceivers {
		for _, inlet := range inlets {
			name := InletCallerName(nodeID, inlet)
			io[name] = name
		}
	}
	for nodeID, outlets := range s.IO.MessageSenders {
		for _, outlet := range outlets {
			name := OutletListenerName(nodeID, outlet)
			io[name] = name
		}
	}
	ioNS, err := namespace.New("globals.io", io)
	if err != nil {
		return nil, err
	}

	return namespace.NewGroup("globals", map[string]*namespace.Namespace{
		GlobalsCore:   core,
		GlobalsMsg:    msg,
		GlobalsArrays: arrayNS,
		GlobalsIO:     ioNS,
	})
}
