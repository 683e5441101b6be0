// Package events defines the notifications published for queue job transitions.
package events

import (
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

type EventType string

// Topic every job event is published to.
const Topic = "leadflow.jobs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	JobEnqueuedEvent  EventType = "job.enqueued"
	JobCompletedEvent EventType = "job.completed"
	JobFailedEvent    EventType = "job.failed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id"`
	OwnerID   string    `json:"owner_id"`
	FlowID    string    `json:"flow_id"`
	LeadID    string    `json:"lead_id"`
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

// JobEnqueued is published when a job is created, either by enrollment or as
// the successor of a completed job.
type JobEnqueued struct {
	BaseEvent

	NextNodeID  string    `json:"next_node_id"`
	RunAt       time.Time `json:"run_at"`
	SourceJobID string    `json:"source_job_id,omitempty"`
}

// JobCompleted is published after a job is marked done.
type JobCompleted struct {
	BaseEvent

	NodeID       string `json:"node_id"`
	NodeType     string `json:"node_type"`
	SuccessorID  string `json:"successor_id,omitempty"`
	FlowFinished bool   `json:"flow_finished"`
}

// JobFailed is published after a job is marked failed.
type JobFailed struct {
	BaseEvent

	NodeID string `json:"node_id"`
	Error  string `json:"error"`
}

func newBase(id string, eventType EventType, job *models.QueueJob, now time.Time) BaseEvent {
	return BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: now.UTC(),
		JobID:     job.ID,
		OwnerID:   job.OwnerID,
		FlowID:    job.FlowID,
		LeadID:    job.LeadID,
	}
}

func NewJobEnqueued(id string, job *models.QueueJob, sourceJobID string, now time.Time) *JobEnqueued {
	return &JobEnqueued{
		BaseEvent:   newBase(id, JobEnqueuedEvent, job, now),
		NextNodeID:  job.NextNodeID,
		RunAt:       job.RunAt.UTC(),
		SourceJobID: sourceJobID,
	}
}

func NewJobCompleted(id string, job *models.QueueJob, nodeType string, successorID string, now time.Time) *JobCompleted {
	return &JobCompleted{
		BaseEvent:    newBase(id, JobCompletedEvent, job, now),
		NodeID:       job.NextNodeID,
		NodeType:     nodeType,
		SuccessorID:  successorID,
		FlowFinished: successorID == "",
	}
}

func NewJobFailed(id string, job *models.QueueJob, reason string, now time.Time) *JobFailed {
	return &JobFailed{
		BaseEvent: newBase(id, JobFailedEvent, job, now),
		NodeID:    job.NextNodeID,
		Error:     reason,
	}
}
