// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"encoding/json"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) models.Node {
	node := models.Node{
		ID:   uuid.New().String(),
		Type: string(models.NodeTypeTrigger),
		Data: map[string]any{},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithData sets the node data.
func WithData(data map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data = data
	}
}

// DelayNode is a delay node waiting minutes.
func DelayNode(id string, minutes any) models.Node {
	return CreateTestNode(WithID(id), WithType("delay"), WithData(map[string]any{"minutes": minutes}))
}

// EmailNode is a raw email node.
func EmailNode(id string) models.Node {
	return CreateTestNode(WithID(id), WithType("email"), WithData(map[string]any{
		"subject": "Hello {{ .name }}",
		"html":    "<p>Welcome {{ .name }}</p>",
	}))
}

// Chain links the nodes in order and returns the graph.
func Chain(nodes ...models.Node) models.Graph {
	edges := make([]models.Edge, 0, len(nodes))

	for i := 1; i < len(nodes); i++ {
		edges = append(edges, models.Edge{
			ID:     nodes[i-1].ID + "-" + nodes[i].ID,
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return models.Graph{Nodes: nodes, Edges: edges}
}

// Document converts a graph into the raw map a store would hand back.
func Document(g models.Graph) map[string]any {
	body, err := json.Marshal(g)
	if err != nil {
		panic(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		panic(err)
	}

	return doc
}

// Reactflow nests a graph document under the reactflow key.
func Reactflow(g models.Graph, ownerID string) map[string]any {
	return map[string]any{
		"owner_id":  ownerID,
		"reactflow": Document(g),
	}
}

// CreateTestLead creates a test Lead with default values that can be overridden.
func CreateTestLead(overrides ...func(*models.Lead)) *models.Lead {
	lead := &models.Lead{
		ID:      uuid.New().String(),
		OwnerID: "owner-1",
		Email:   "ada@example.com",
		Name:    "Ada",
		Phone:   "+15550100",
	}

	for _, override := range overrides {
		override(lead)
	}

	return lead
}
