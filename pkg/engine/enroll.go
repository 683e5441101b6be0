package engine

import (
	"context"
	"errors"
	"time"

	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/models"
)

// ErrInvalidEnrollment is returned when an enrollment names no flow or lead.
var ErrInvalidEnrollment = errors.New("enrollment requires flow id and lead id")

// EnrollRequest puts a lead at the start of a flow, or at NodeID when set.
type EnrollRequest struct {
	FlowID  string
	LeadID  string
	OwnerID string
	ListID  *string
	NodeID  string
	RunAt   time.Time
}

// Enroll creates the first pending job of a lead in a flow. created is false
// when the same lead already waits at that node.
func (p *Processor) Enroll(ctx context.Context, req EnrollRequest) (*models.QueueJob, bool, error) {
	if req.FlowID == "" || req.LeadID == "" {
		return nil, false, ErrInvalidEnrollment
	}

	flow, err := p.deps.Flows.LoadFlow(ctx, req.FlowID)
	if err != nil {
		return nil, false, err
	}

	var node *models.Node
	if req.NodeID == "" {
		node = graph.EntryNode(flow.Graph)
		if node == nil {
			return nil, false, ErrNoEntryNode
		}
	} else {
		node = graph.FindNode(flow.Graph.Nodes, req.NodeID)
		if node == nil {
			return nil, false, ErrNodeNotFound
		}
	}

	lead, err := p.deps.Leads.LeadByID(ctx, req.LeadID)
	if err != nil {
		return nil, false, err
	}

	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = flow.OwnerID
	}

	if ownerID == "" {
		ownerID = lead.OwnerID
	}

	runAt := req.RunAt
	if runAt.IsZero() {
		runAt = p.now()
	}

	job := &models.QueueJob{
		OwnerID:    ownerID,
		FlowID:     flow.ID,
		LeadID:     lead.ID,
		ListID:     req.ListID,
		NextNodeID: node.ID,
		RunAt:      runAt.UTC(),
	}

	created, err := p.deps.Queue.Enqueue(ctx, job)
	if err != nil {
		return nil, false, err
	}

	if created {
		p.logger.InfoContext(ctx, "Lead enrolled", "job_id", job.ID, "flow_id", job.FlowID, "lead_id", job.LeadID, "node_id", job.NextNodeID)
		p.publish(ctx, job.LeadID, events.NewJobEnqueued(p.eventID(), job, "", p.now()))
	}

	return job, created, nil
}
