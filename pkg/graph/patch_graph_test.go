package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/patchc/pkg/model"
)

func TestAddNodeAndEdge(t *testing.T) {
	pg := New()
	pg.AddNode("a")
	pg.AddNode("a")
	pg.AddEdge("a", "b")
	pg.AddEdge("a", "b")

	if pg.Len() != 2 {
		t.Errorf("Expected 2 nodes, got %d", pg.Len())
	}
	if got := pg.Successors("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("Expected successors [b], got %v", got)
	}
	if id, ok := pg.ID("b"); !ok || pg.Name(id) != "b" {
		t.Errorf("Expected id round trip for b, got %d", id)
	}
	if pg.Name(42) != "" {
		t.Error("Expected empty name for unknown id")
	}
}

func TestSelfLoop(t *testing.T) {
	pg := New()
	pg.AddEdge("a", "a")
	pg.AddNode("b")

	if !pg.HasSelfLoop("a") || pg.HasSelfLoop("b") {
		t.Error("Expected only a to have a self loop")
	}
	if diff := cmp.Diff([]string{"a"}, pg.SelfLoops()); diff != "" {
		t.Errorf("SelfLoops() mismatch (-want +got):\n%s", diff)
	}
	if len(pg.Successors("a")) != 0 {
		t.Error("Expected self loop not to appear as a successor")
	}
}

func TestStableOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{
			name:  "independent nodes keep insertion order",
			nodes: []string{"c", "a", "b"},
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "ready nodes are taken in insertion order",
			nodes: []string{"a", "b", "c"},
			edges: [][2]string{{"a", "c"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "cycle is placed at its first member",
			nodes: []string{"src", "x", "late", "y"},
			edges: [][2]string{{"src", "y"}, {"y", "x"}, {"x", "y"}, {"late", "x"}},
			want:  []string{"src", "late", "x", "y"},
		},
		{
			name:  "sources before sinks",
			nodes: []string{"sink", "mid", "src"},
			edges: [][2]string{{"src", "mid"}, {"mid", "sink"}},
			want:  []string{"src", "mid", "sink"},
		},
		{
			name:  "earliest ready node first",
			nodes: []string{"x", "a", "b", "y"},
			edges: [][2]string{{"a", "x"}, {"b", "y"}},
			want:  []string{"a", "x", "b", "y"},
		},
		{
			name:  "cycle is placed together",
			nodes: []string{"src", "c2", "c1", "out"},
			edges: [][2]string{{"src", "c1"}, {"c1", "c2"}, {"c2", "c1"}, {"c2", "out"}},
			want:  []string{"src", "c2", "c1", "out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := New()
			for _, n := range tt.nodes {
				pg.AddNode(n)
			}
			for _, e := range tt.edges {
				pg.AddEdge(e[0], e[1])
			}
			if diff := cmp.Diff(tt.want, pg.StableOrder()); diff != "" {
				t.Errorf("StableOrder() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeakComponents(t *testing.T) {
	pg := New()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		pg.AddNode(n)
	}
	pg.AddEdge("d", "a")
	pg.AddEdge("c", "e")

	want := [][]string{{"a", "d"}, {"b"}, {"c", "e"}}
	if diff := cmp.Diff(want, pg.WeakComponents()); diff != "" {
		t.Errorf("WeakComponents() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromPatchFiltersKinds(t *testing.T) {
	g := model.NewGraph()
	nodes := []*model.Node{
		{ID: "osc", Type: "osc~", Outlets: []model.Portlet{{ID: "0", Kind: model.Signal}}},
		{ID: "num", Type: "float", Outlets: []model.Portlet{{ID: "0", Kind: model.Message}}},
		{ID: "dac", Type: "dac~", Inlets: []model.Portlet{{ID: "0", Kind: model.Signal}, {ID: "m", Kind: model.Message}}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode() error = %v", err)
		}
	}
	if err := g.Connect("osc", "0", "dac", "0"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := g.Connect("num", "0", "dac", "m"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	all := FromPatch(g)
	if got := len(all.Successors("num")); got != 1 {
		t.Errorf("Expected message edge in full graph, got %d successors", got)
	}

	signal := FromPatch(g, model.Signal)
	if got := len(signal.Successors("num")); got != 0 {
		t.Errorf("Expected no message edge in signal graph, got %d successors", got)
	}
	if got := signal.Successors("osc"); len(got) != 1 || got[0] != "dac" {
		t.Errorf("Expected osc -> dac, got %v", got)
	}
}
