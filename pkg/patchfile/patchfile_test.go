package patchfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/settings"
)

const tomlPatch = `
[settings]
target = "systems"
debug = true

[settings.audio]
bitdepth = 32

[settings.io.messagereceivers]
freq = ["0"]

[[nodes]]
id = "osc"
type = "osc~"
args = { frequency = 440 }

[[nodes]]
id = "out"
type = "dac~"

[[connections]]
from = "osc:0"
to = "out:0"
`

const jsonPatch = `{
  "settings": {"target": "scripting", "audio": {"bitDepth": 64}},
  "nodes": [
    {"id": "osc", "type": "osc~", "args": {"frequency": 440}},
    {"id": "out", "type": "custom", "inlets": ["0:signal", "1:message"]}
  ],
  "connections": [{"from": "osc:0", "to": "out:0"}]
}`

const hclPatchSrc = `
settings {
  target            = "systems"
  bit_depth         = 32
  message_receivers = { freq = ["0"] }
  arrays            = { table = [0, 0.5, 1] }
}

node "osc" {
  type = "osc~"
  args = { frequency = 440, label = "lead" }
}

node "out" {
  type = "dac~"
}

connection {
  from = "osc:0"
  to   = "out:0"
}
`

func testRegistry() *node.Registry {
	r := node.NewRegistry()
	r.MustRegister("osc~", &node.Implementation{
		Portlets: func(map[string]any) ([]model.Portlet, []model.Portlet) {
			return []model.Portlet{{ID: "0", Kind: model.Signal}, {ID: "1", Kind: model.Message}},
				[]model.Portlet{{ID: "0", Kind: model.Signal}}
		},
	})
	r.MustRegister("dac~", &node.Implementation{
		Sink: true,
		Portlets: func(map[string]any) ([]model.Portlet, []model.Portlet) {
			return []model.Portlet{{ID: "0", Kind: model.Signal}, {ID: "1", Kind: model.Signal}}, nil
		},
	})
	return r
}

func writePatch(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		content      string
		wantTarget   string
		wantBitDepth int
	}{
		{name: "toml", file: "patch.toml", content: tomlPatch, wantTarget: settings.TargetSystems, wantBitDepth: 32},
		{name: "json", file: "patch.json", content: jsonPatch, wantTarget: settings.TargetScripting, wantBitDepth: 64},
		{name: "hcl", file: "patch.hcl", content: hclPatchSrc, wantTarget: settings.TargetSystems, wantBitDepth: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(writePatch(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if p.Settings.Target != tt.wantTarget {
				t.Errorf("Expected target %q, got %q", tt.wantTarget, p.Settings.Target)
			}
			if p.Settings.Audio.BitDepth != tt.wantBitDepth {
				t.Errorf("Expected bit depth %d, got %d", tt.wantBitDepth, p.Settings.Audio.BitDepth)
			}
			if len(p.Nodes) != 2 || len(p.Connections) != 1 {
				t.Fatalf("Expected 2 nodes and 1 connection, got %d and %d", len(p.Nodes), len(p.Connections))
			}
			osc := p.Nodes[0]
			if osc.ID != "osc" || osc.Type != "osc~" {
				t.Errorf("Unexpected first node %+v", osc)
			}
			mn := &model.Node{Args: osc.Args}
			if got := mn.ArgFloat("frequency", 0); got != 440 {
				t.Errorf("Expected frequency 440, got %v", got)
			}
		})
	}
}

func TestHCLSettingsAndArgs(t *testing.T) {
	p, err := Parse([]byte(hclPatchSrc), FormatHCL)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(map[string][]float64{"table": {0, 0.5, 1}}, p.Settings.Arrays); diff != "" {
		t.Errorf("Arrays mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"freq": {"0"}}, p.Settings.IO.MessageReceivers); diff != "" {
		t.Errorf("MessageReceivers mismatch (-want +got):\n%s", diff)
	}
	if got := p.Nodes[0].Args["label"]; got != "lead" {
		t.Errorf("Expected label arg \"lead\", got %v", got)
	}
	if p.Nodes[1].Args != nil {
		t.Errorf("Expected no args for out, got %v", p.Nodes[1].Args)
	}
}

func TestTOMLNestedSettings(t *testing.T) {
	p, err := Parse([]byte(tomlPatch), FormatTOML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.Settings.Debug {
		t.Error("Expected debug to be set")
	}
	if diff := cmp.Diff(map[string][]string{"freq": {"0"}}, p.Settings.IO.MessageReceivers); diff != "" {
		t.Errorf("MessageReceivers mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph(t *testing.T) {
	p, err := Parse([]byte(jsonPatch), FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	g, err := p.Graph(testRegistry())
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}

	osc, ok := g.Node("osc")
	if !ok {
		t.Fatal("Expected node osc")
	}
	if len(osc.Inlets) != 2 || len(osc.Outlets) != 1 {
		t.Errorf("Expected default osc~ layout, got %+v", osc)
	}

	out, _ := g.Node("out")
	want := []model.Portlet{{ID: "0", Kind: model.Signal}, {ID: "1", Kind: model.Message}}
	if diff := cmp.Diff(want, out.Inlets); diff != "" {
		t.Errorf("Inlets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.Connection{{NodeID: "osc", PortletID: "0"}}, out.Sources["0"]); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphErrors(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{
			name:  "unknown type without layout",
			patch: Patch{Nodes: []Node{{ID: "x", Type: "nope"}}},
		},
		{
			name:  "bad portlet kind",
			patch: Patch{Nodes: []Node{{ID: "x", Type: "nope", Inlets: []string{"0:audio"}}}},
		},
		{
			name:  "portlet without kind",
			patch: Patch{Nodes: []Node{{ID: "x", Type: "nope", Outlets: []string{"0"}}}},
		},
		{
			name: "bad endpoint",
			patch: Patch{
				Nodes:       []Node{{ID: "osc", Type: "osc~"}},
				Connections: []Connection{{From: "osc", To: "osc:1"}},
			},
		},
		{
			name: "unknown node in connection",
			patch: Patch{
				Nodes:       []Node{{ID: "osc", Type: "osc~"}},
				Connections: []Connection{{From: "osc:0", To: "missing:0"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.patch.Graph(testRegistry()); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestSplitEndpoint(t *testing.T) {
	node, portlet, err := splitEndpoint("ns:osc:0")
	if err != nil {
		t.Fatalf("splitEndpoint() error = %v", err)
	}
	if node != "ns:osc" || portlet != "0" {
		t.Errorf("Expected ns:osc and 0, got %s and %s", node, portlet)
	}
	for _, bad := range []string{"", "osc", ":0", "osc:"} {
		if _, _, err := splitEndpoint(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := Load("patch.yaml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Parse(nil, "xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		format  string
		content string
	}{
		{FormatJSON, `{"nodes": [`},
		{FormatTOML, `[[nodes]`},
		{FormatHCL, `node "x" {`},
		{FormatHCL, `node "x" { args = { a = 1 } }`},
		{FormatHCL, `node "x" {
  type = "t"
  args = "not an object"
}`},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.content), tt.format); err == nil {
			t.Errorf("Expected %s parse error for %q", tt.format, tt.content)
		}
	}
}
