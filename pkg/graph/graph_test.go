package graph_test

import (
	"testing"

	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNode(t *testing.T) {
	t.Parallel()

	nodes := []models.Node{{ID: "a"}, {ID: "b"}}

	node := graph.FindNode(nodes, "b")
	require.NotNil(t, node)
	assert.Equal(t, "b", node.ID)
	assert.Nil(t, graph.FindNode(nodes, "c"))
}

func TestFirstOutgoing_PicksFirstEdge(t *testing.T) {
	t.Parallel()

	edges := []models.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c"},
		{Source: "b", Target: "c"},
	}

	next, ok := graph.FirstOutgoing(edges, "a")
	assert.True(t, ok)
	assert.Equal(t, "b", next)

	_, ok = graph.FirstOutgoing(edges, "c")
	assert.False(t, ok)
}

func TestChainFrom(t *testing.T) {
	t.Parallel()

	g := models.Graph{Edges: []models.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}}

	chain, err := graph.ChainFrom(g, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, chain)

	g.Edges = append(g.Edges, models.Edge{Source: "c", Target: "a"})

	_, err = graph.ChainFrom(g, "b")
	assert.ErrorIs(t, err, graph.ErrCycleDetected)
}

func TestEntryNode(t *testing.T) {
	t.Parallel()

	g := models.Graph{
		Nodes: []models.Node{{ID: "e", Type: "email"}, {ID: "t", Type: "Trigger"}},
		Edges: []models.Edge{{Source: "t", Target: "e"}},
	}
	assert.Equal(t, "t", graph.EntryNode(g).ID)

	g.Nodes[1].Type = "delay"
	assert.Equal(t, "t", graph.EntryNode(g).ID)

	assert.Nil(t, graph.EntryNode(models.Graph{}))
}
