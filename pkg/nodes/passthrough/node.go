// Package passthrough provides the node used for triggers, conditions and
// every type without a dedicated executor: it advances the lead immediately.
package passthrough

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

type Node struct {
	nodeType models.NodeType
	name     string
}

// New creates a passthrough executor registered for nodeType.
func New(nodeType models.NodeType, name string) *Node {
	return &Node{nodeType: nodeType, name: name}
}

func (n *Node) Type() models.NodeType {
	return n.nodeType
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Execute(_ context.Context, input protocol.ExecutionInput) (protocol.Outcome, error) {
	return protocol.Outcome{
		Advance:      true,
		RunAt:        input.Now,
		ActivityType: models.ActivityNodeCompleted,
		Message:      "Node " + input.Node.ID + " completed",
		Meta: map[string]any{
			"node_id":   input.Node.ID,
			"node_type": input.Node.Type,
		},
	}, nil
}

// Schema accepts any object.
func (n *Node) Schema() map[string]any {
	return map[string]any{
		"type": "object",
	}
}
