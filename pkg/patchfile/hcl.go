package patchfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/ritzau/patchc/pkg/settings"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

type hclPatch struct {
	Settings    *hclSettings     `hcl:"settings,block"`
	Nodes       []*hclNode       `hcl:"node,block"`
	Connections []*hclConnection `hcl:"connection,block"`
}

type hclSettings struct {
	Target           string               `hcl:"target,optional"`
	BitDepth         int                  `hcl:"bit_depth,optional"`
	ChannelsIn       int                  `hcl:"channels_in,optional"`
	ChannelsOut      int                  `hcl:"channels_out,optional"`
	Debug            bool                 `hcl:"debug,optional"`
	Arrays           map[string][]float64 `hcl:"arrays,optional"`
	MessageReceivers map[string][]string  `hcl:"message_receivers,optional"`
	MessageSenders   map[string][]string  `hcl:"message_senders,optional"`
}

type hclNode struct {
	ID      string    `hcl:"id,label"`
	Type    string    `hcl:"type"`
	Args    cty.Value `hcl:"args,optional"`
	Inlets  []string  `hcl:"inlets,optional"`
	Outlets []string  `hcl:"outlets,optional"`
}

type hclConnection struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

func parseHCL(data []byte, filename string) (*Patch, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var decoded hclPatch
	diags = gohcl.DecodeBody(file.Body, nil, &decoded)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	p := &Patch{}
	if s := decoded.Settings; s != nil {
		p.Settings = settings.Settings{
			Target: s.Target,
			Audio: settings.Audio{
				BitDepth:     s.BitDepth,
				ChannelCount: settings.ChannelCount{In: s.ChannelsIn, Out: s.ChannelsOut},
			},
			Arrays: s.Arrays,
			IO: settings.IO{
				MessageReceivers: s.MessageReceivers,
				MessageSenders:   s.MessageSenders,
			},
			Debug: s.Debug,
		}
	}

	for _, n := range decoded.Nodes {
		args, err := ctyArgs(n.Args)
		if err != nil {
			return nil, fmt.Errorf("node %q args: %w", n.ID, err)
		}
		p.Nodes = append(p.Nodes, Node{
			ID:      n.ID,
			Type:    n.Type,
			Args:    args,
			Inlets:  n.Inlets,
			Outlets: n.Outlets,
		})
	}
	for _, c := range decoded.Connections {
		p.Connections = append(p.Connections, Connection{From: c.From, To: c.To})
	}
	return p, nil
}

func ctyArgs(v cty.Value) (map[string]any, error) {
	if v.Type() == cty.NilType || v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	native, err := ctyToNative(v)
	if err != nil {
		return nil, err
	}
	return native.(map[string]any), nil
}

// ctyToNative converts a cty value to plain Go values: strings, float64,
// bool, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, native)
		}
		return list, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in %q: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}
