package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/engine"
	"github.com/dukex/leadflow/pkg/lock"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ProcessLockKey serializes batch processing across processes.
const ProcessLockKey = "leadflow:process"

const defaultLockTTL = 5 * time.Minute

// ProcessResult is the outcome of one invocation. Skipped is set when another
// invocation held the lock.
type ProcessResult struct {
	models.BatchResult

	Now     time.Time
	Skipped bool
}

type Queue struct {
	persistence persistence.Persistence
	processor   *engine.Processor
	locker      lock.Locker
	lockTTL     time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewQueue creates a queue service. A nil locker never blocks.
func NewQueue(logger *slog.Logger, p persistence.Persistence, processor *engine.Processor, locker lock.Locker, lockTTL time.Duration) *Queue {
	if locker == nil {
		locker = lock.Noop{}
	}

	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &Queue{
		persistence: p,
		processor:   processor,
		locker:      locker,
		lockTTL:     lockTTL,
		logger:      logger.With("module", "queue_service"),
		now:         time.Now,
	}
}

// HealthCheck checks the health of the persistence layer.
func (q *Queue) HealthCheck(ctx context.Context) (string, bool) {
	if q.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := q.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Process runs one batch. The only error returned is a failure to query the queue
// or to reach the lock.
func (q *Queue) Process(ctx context.Context, limit int) (ProcessResult, error) {
	result := ProcessResult{Now: q.now().UTC()}

	release, ok, err := q.locker.TryLock(ctx, ProcessLockKey, q.lockTTL)
	if err != nil {
		return result, err
	}

	if !ok {
		q.logger.InfoContext(ctx, "Another invocation is processing the queue, skipping")

		result.Skipped = true

		return result, nil
	}

	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			q.logger.WarnContext(ctx, "Failed to release process lock", "error", err)
		}
	}()

	batch, err := q.processor.ProcessBatch(ctx, limit)
	if err != nil {
		return result, err
	}

	result.BatchResult = batch

	return result, nil
}

// EnrollRequest contains the data to start a lead on a flow.
type EnrollRequest struct {
	FlowID  string     `json:"flow_id"            validate:"required"`
	LeadID  string     `json:"lead_id"            validate:"required"`
	OwnerID string     `json:"owner_id,omitempty"`
	ListID  *string    `json:"list_id,omitempty"`
	NodeID  string     `json:"node_id,omitempty"`
	RunAt   *time.Time `json:"run_at,omitempty"`
}

// Enroll creates the first job of a lead on a flow.
func (q *Queue) Enroll(ctx context.Context, req EnrollRequest) (*models.QueueJob, bool, error) {
	if req.FlowID == "" || req.LeadID == "" {
		return nil, false, fmt.Errorf("%w: flow_id and lead_id are required", ErrInvalidRequest)
	}

	enroll := engine.EnrollRequest{
		FlowID:  req.FlowID,
		LeadID:  req.LeadID,
		OwnerID: req.OwnerID,
		ListID:  req.ListID,
		NodeID:  req.NodeID,
	}
	if req.RunAt != nil {
		enroll.RunAt = *req.RunAt
	}

	return q.processor.Enroll(ctx, enroll)
}

// Job returns one job by id.
func (q *Queue) Job(ctx context.Context, id string) (*models.QueueJob, error) {
	return q.persistence.QueueRepository().JobByID(ctx, id)
}

// LeadJobs returns the job history of a lead, newest first.
func (q *Queue) LeadJobs(ctx context.Context, leadID string) ([]*models.QueueJob, error) {
	return q.persistence.QueueRepository().JobsByLead(ctx, leadID)
}
