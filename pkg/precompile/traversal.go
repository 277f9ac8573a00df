package precompile

import (
	"fmt"

	"github.com/ritzau/patchc/pkg/cycles"
	"github.com/ritzau/patchc/pkg/graph"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
)

// loopOrder returns the nodes that run every frame, sources first. Signal
// values are computed once per frame, so a signal feedback loop has no
// valid order and is rejected.
func loopOrder(g *model.Graph, impls map[string]*node.Implementation) ([]string, error) {
	hot := make(map[string]bool, g.Len())
	for _, n := range g.Nodes() {
		if IsHot(n, impls[n.ID]) {
			hot[n.ID] = true
		}
	}

	signal := graph.FromPatch(g.Subgraph(hot), model.Signal)
	if found := cycles.FindCycles(signal); len(found) > 0 {
		return nil, &model.ValidationError{
			NodeID: found[0].Nodes[0],
			Reason: fmt.Sprintf("signal feedback loop %s", found[0]),
		}
	}
	return signal.StableOrder(), nil
}
