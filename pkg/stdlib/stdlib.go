// Package stdlib is the built-in node library: oscillators, signal
// arithmetic, audio input/output and a handful of message nodes.
package stdlib

import (
	"strconv"

	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/namespace"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/precompile"
)

// Registry returns a registry holding every built-in node type.
func Registry() *node.Registry {
	r := node.NewRegistry()
	r.MustRegister("osc~", oscillator())
	r.MustRegister("+~", binarySignal("+"))
	r.MustRegister("*~", binarySignal("*"))
	r.MustRegister("sig~", sig())
	r.MustRegister("adc~", adc())
	r.MustRegister("dac~", dac())
	r.MustRegister("float", floatAtom())
	r.MustRegister("+", messageAdd())
	r.MustRegister("print", printer())
	return r
}

// lookup resolves names through the strict namespaces of a context and
// keeps the first error, so generators can read several names and check
// once.
type lookup struct {
	ctx node.Context
	err error
}

func (l *lookup) get(ns *namespace.Namespace, key string) string {
	if l.err != nil {
		return ""
	}
	v, err := ns.Get(key)
	if err != nil {
		l.err = err
	}
	return v
}

func (l *lookup) in(key string) string    { return l.get(l.ctx.Ins, key) }
func (l *lookup) out(key string) string   { return l.get(l.ctx.Outs, key) }
func (l *lookup) snd(key string) string   { return l.get(l.ctx.Snds, key) }
func (l *lookup) state(key string) string { return l.get(l.ctx.State, key) }

func (l *lookup) core(key string) string {
	return l.global(precompile.GlobalsCore, key)
}

func (l *lookup) msg(key string) string {
	return l.global(precompile.GlobalsMsg, key)
}

func (l *lookup) global(child, key string) string {
	if l.err != nil {
		return ""
	}
	v, err := l.ctx.Global(child, key)
	if err != nil {
		l.err = err
	}
	return v
}

func connected(n *model.Node, inletID string) bool {
	return len(n.Sources[inletID]) > 0
}

func signals(prefix string, count int) []model.Portlet {
	out := make([]model.Portlet, count)
	for i := range out {
		out[i] = model.Portlet{ID: prefix + strconv.Itoa(i), Kind: model.Signal}
	}
	return out
}

func portlet(id string, kind model.PortletKind) model.Portlet {
	return model.Portlet{ID: id, Kind: kind}
}

func fixedPortlets(inlets, outlets []model.Portlet) node.PortletsFunc {
	return func(map[string]any) ([]model.Portlet, []model.Portlet) {
		return inlets, outlets
	}
}

func argInt(args map[string]any, name string, def int) int {
	n := &model.Node{Args: args}
	return int(n.ArgFloat(name, float64(def)))
}
