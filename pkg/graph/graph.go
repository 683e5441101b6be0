package graph

import (
	"errors"

	"github.com/dukex/leadflow/pkg/models"
)

// ErrCycleDetected marks a flow whose followed path loops back on itself.
var ErrCycleDetected = errors.New("cycle detected in flow graph")

// FindNode returns the node with the given id or nil.
func FindNode(nodes []models.Node, id string) *models.Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}

	return nil
}

// FirstOutgoing returns the target of the first edge leaving fromID. The
// second value is false when the node is terminal.
func FirstOutgoing(edges []models.Edge, fromID string) (string, bool) {
	for _, edge := range edges {
		if edge.Source == fromID {
			return edge.Target, true
		}
	}

	return "", false
}

// ChainFrom walks first-outgoing edges starting at fromID and returns the
// visited node ids in order. It returns ErrCycleDetected when the walk comes
// back to a node it has already seen.
func ChainFrom(g models.Graph, fromID string) ([]string, error) {
	seen := map[string]bool{}
	chain := make([]string, 0)

	current := fromID
	for {
		if seen[current] {
			return chain, ErrCycleDetected
		}

		seen[current] = true
		chain = append(chain, current)

		next, ok := FirstOutgoing(g.Edges, current)
		if !ok {
			return chain, nil
		}

		current = next
	}
}

// EntryNode picks the node a new enrollment starts at: the first trigger node,
// or failing that the first node without incoming edges.
func EntryNode(g models.Graph) *models.Node {
	for i := range g.Nodes {
		if g.Nodes[i].Kind() == models.NodeTypeTrigger {
			return &g.Nodes[i]
		}
	}

	incoming := map[string]bool{}
	for _, edge := range g.Edges {
		incoming[edge.Target] = true
	}

	for i := range g.Nodes {
		if !incoming[g.Nodes[i].ID] {
			return &g.Nodes[i]
		}
	}

	return nil
}
