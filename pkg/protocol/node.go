// Package protocol defines the contract between the queue processor and the
// per-type node executors.
package protocol

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

// ExecutionInput is everything an executor may look at for one job.
type ExecutionInput struct {
	Job  *models.QueueJob
	Node *models.Node
	Lead *models.Lead
	Now  time.Time
}

// Outcome describes a successful node execution. When Advance is set the
// processor enqueues the successor (if any) with RunAt.
type Outcome struct {
	Advance      bool
	RunAt        time.Time
	ActivityType models.ActivityType
	Message      string
	Meta         map[string]any
}

// NodeExecutor runs one node type.
type NodeExecutor interface {
	// Type returns the normalized node type handled by this executor
	Type() models.NodeType

	// Name returns the human-readable name for this node type
	Name() string

	// Execute runs the node for one job. A returned error fails the job.
	Execute(ctx context.Context, input ExecutionInput) (Outcome, error)

	// Schema returns the JSON schema for the node's data
	Schema() map[string]any
}
