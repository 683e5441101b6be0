package engine

import (
	"context"
	"log/slog"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/google/uuid"
)

func (p *Processor) execute(ctx context.Context, job *models.QueueJob) (*executedStep, error) {
	flow, err := p.deps.Flows.LoadFlow(ctx, job.FlowID)
	if err != nil {
		return nil, NewJobError("LoadFlow", job.ID, err)
	}

	node := graph.FindNode(flow.Graph.Nodes, job.NextNodeID)
	if node == nil {
		return nil, NewJobError("FindNode", job.ID, ErrNodeNotFound)
	}

	if _, err := graph.ChainFrom(flow.Graph, node.ID); err != nil {
		return nil, NewJobError("ChainFrom", job.ID, err)
	}

	lead, err := p.deps.Leads.LeadByID(ctx, job.LeadID)
	if err != nil {
		return nil, NewJobError("LeadByID", job.ID, err)
	}

	ownerID := ownerOf(job, flow)

	p.deps.Activity.Record(ctx, &models.ActivityRecord{
		LeadID:  job.LeadID,
		OwnerID: ownerID,
		Type:    models.ActivityNodeEntered,
		Message: "Entered node " + node.ID,
		Meta: map[string]any{
			"flow_id":   job.FlowID,
			"node_id":   node.ID,
			"node_type": node.Type,
			"job_id":    job.ID,
		},
	})

	outcome, err := p.deps.Executors.Executor(node.Type).Execute(ctx, protocol.ExecutionInput{
		Job:  job,
		Node: node,
		Lead: lead,
		Now:  p.now().UTC(),
	})
	if err != nil {
		return nil, NewJobError("Execute", job.ID, err)
	}

	return &executedStep{flow: flow, node: node, lead: lead, outcome: outcome}, nil
}

// advance records the outcome, enqueues the successor and only then marks
// the job done, so a crash in between leaves at most a duplicate attempt
// that the pending-key check absorbs.
func (p *Processor) advance(ctx context.Context, logger *slog.Logger, job *models.QueueJob, step *executedStep) jobOutcome {
	ownerID := ownerOf(job, step.flow)
	outcome := step.outcome

	if outcome.ActivityType != "" {
		meta := outcome.Meta
		if meta == nil {
			meta = map[string]any{}
		}

		meta["flow_id"] = job.FlowID
		meta["job_id"] = job.ID

		p.deps.Activity.Record(ctx, &models.ActivityRecord{
			LeadID:  job.LeadID,
			OwnerID: ownerID,
			Type:    outcome.ActivityType,
			Message: outcome.Message,
			Meta:    meta,
		})
	}

	successorID := ""

	if next, ok := graph.FirstOutgoing(step.flow.Graph.Edges, step.node.ID); ok && outcome.Advance {
		successor := &models.QueueJob{
			OwnerID:    ownerID,
			FlowID:     job.FlowID,
			LeadID:     job.LeadID,
			ListID:     job.ListID,
			NextNodeID: next,
			RunAt:      outcome.RunAt,
		}

		created, err := p.deps.Queue.Enqueue(ctx, successor)
		if err != nil {
			return p.fail(ctx, logger, job, NewJobError("Enqueue", job.ID, err))
		}

		successorID = next

		if created {
			logger.DebugContext(ctx, "Successor enqueued", "successor_job_id", successor.ID, "run_at", successor.RunAt)
			p.publish(ctx, job.LeadID, events.NewJobEnqueued(p.eventID(), successor, job.ID, p.now()))
		} else {
			logger.InfoContext(ctx, "Successor already pending", "successor_node_id", next)
		}
	}

	err := p.deps.Queue.Complete(ctx, job.ID, p.now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mark job done", "error", err)

		return jobSkipped
	}

	job.Status = models.JobStatusDone

	if successorID == "" {
		p.deps.Activity.Record(ctx, &models.ActivityRecord{
			LeadID:  job.LeadID,
			OwnerID: ownerID,
			Type:    models.ActivityFlowCompleted,
			Message: "Flow completed",
			Meta:    map[string]any{"flow_id": job.FlowID, "node_id": step.node.ID},
		})
	}

	p.publish(ctx, job.LeadID, events.NewJobCompleted(p.eventID(), job, step.node.Type, successorID, p.now()))

	logger.InfoContext(ctx, "Job processed", "node_type", step.node.Type, "successor_node_id", successorID)

	return jobDone
}

func (p *Processor) fail(ctx context.Context, logger *slog.Logger, job *models.QueueJob, cause error) jobOutcome {
	reason := truncate(cause.Error())

	logger.WarnContext(ctx, "Job failed", "error", cause)

	err := p.deps.Queue.Fail(ctx, job.ID, reason, p.now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mark job failed", "error", err)

		return jobSkipped
	}

	job.Status = models.JobStatusFailed

	p.deps.Activity.Record(ctx, &models.ActivityRecord{
		LeadID:  job.LeadID,
		OwnerID: job.OwnerID,
		Type:    models.ActivityError,
		Message: reason,
		Meta:    map[string]any{"flow_id": job.FlowID, "node_id": job.NextNodeID, "job_id": job.ID},
	})

	p.publish(ctx, job.LeadID, events.NewJobFailed(p.eventID(), job, reason, p.now()))

	return jobFailed
}

func (p *Processor) publish(ctx context.Context, key string, event eventbus.Event) {
	if p.deps.Publisher == nil {
		return
	}

	if err := p.deps.Publisher.Publish(ctx, key, event); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (p *Processor) eventID() string {
	return uuid.New().String()
}

func ownerOf(job *models.QueueJob, flow *models.Flow) string {
	if job.OwnerID != "" {
		return job.OwnerID
	}

	return flow.OwnerID
}
