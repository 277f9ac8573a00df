// Package cycles detects feedback loops in a patch.
package cycles

import (
	"sort"
	"strings"

	"github.com/ritzau/patchc/pkg/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycle is a set of nodes that feed into each other, in insertion order.
type Cycle struct {
	Nodes []string
}

func (c Cycle) String() string {
	return strings.Join(c.Nodes, " -> ")
}

// FindCycles returns every feedback loop of pg, including nodes connected
// to themselves, ordered by their first member.
func FindCycles(pg *graph.PatchGraph) []Cycle {
	var cycles []Cycle
	selfLoops := pg.SelfLoops()

	for _, scc := range topo.TarjanSCC(pg.Graph()) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		nodes := make([]string, len(ids))
		for i, id := range ids {
			nodes[i] = pg.Name(id)
		}
		cycles = append(cycles, Cycle{Nodes: nodes})
	}

	// A self loop is only reported on its own when the node is not already
	// part of a larger cycle.
	for _, name := range selfLoops {
		if inAny(cycles, name) {
			continue
		}
		cycles = append(cycles, Cycle{Nodes: []string{name}})
	}
	sortCycles(pg, cycles)
	return cycles
}

func inAny(cycles []Cycle, name string) bool {
	for _, c := range cycles {
		for _, n := range c.Nodes {
			if n == name {
				return true
			}
		}
	}
	return false
}

func sortCycles(pg *graph.PatchGraph, cycles []Cycle) {
	first := func(c Cycle) int64 {
		id, _ := pg.ID(c.Nodes[0])
		return id
	}
	sort.Slice(cycles, func(a, b int) bool { return first(cycles[a]) < first(cycles[b]) })
}
