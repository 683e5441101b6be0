package models

import "time"

// JobStatus represents the lifecycle state of a queue job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing" // Claimed by a processor invocation
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status is final. Terminal jobs are never touched again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// QueueJob says "lead LeadID is about to execute node NextNodeID of flow FlowID".
// The queue is the only place where a lead's position inside a flow is kept.
type QueueJob struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	FlowID      string     `json:"flow_id"`
	LeadID      string     `json:"lead_id"`
	ListID      *string    `json:"list_id,omitempty"`
	NextNodeID  string     `json:"next_node_id"`
	RunAt       time.Time  `json:"run_at"`
	Status      JobStatus  `json:"status"`
	Attempts    int        `json:"attempts"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// JobKey is the identity used to suppress duplicate pending jobs.
type JobKey struct {
	FlowID     string
	LeadID     string
	NextNodeID string
}

// Key returns the deduplication key of the job.
func (j *QueueJob) Key() JobKey {
	return JobKey{FlowID: j.FlowID, LeadID: j.LeadID, NextNodeID: j.NextNodeID}
}

// BatchResult summarizes one processor invocation.
type BatchResult struct {
	Found     int `json:"found"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
