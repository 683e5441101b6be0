// Package persistence provides the storage abstraction the flow engine runs on.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

// Persistence bundles the stores a backend provides.
type Persistence interface {
	QueueRepository() QueueRepository
	LeadRepository() LeadRepository
	ActivityRepository() ActivityRepository
	// FlowLoaders returns the flow locations of this backend in probe order.
	FlowLoaders() []FlowLoader

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// QueueRepository is the persisted job list. It is the only store the engine writes to.
type QueueRepository interface {
	// DueJobs returns up to limit pending jobs with run_at <= now, earliest first.
	DueJobs(ctx context.Context, now time.Time, limit int) ([]*models.QueueJob, error)
	// Claim moves a job from pending to processing. It returns false when the
	// job was not pending anymore, e.g. another invocation claimed it first.
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	Complete(ctx context.Context, id string, now time.Time) error
	Fail(ctx context.Context, id string, reason string, now time.Time) error
	// Enqueue inserts a pending job unless one already exists for the same
	// (flow_id, lead_id, next_node_id). The check and insert are atomic.
	Enqueue(ctx context.Context, job *models.QueueJob) (bool, error)
	// RequeueStale returns processing jobs not updated since before to pending.
	RequeueStale(ctx context.Context, before time.Time, now time.Time) (int, error)

	JobByID(ctx context.Context, id string) (*models.QueueJob, error)
	JobsByLead(ctx context.Context, leadID string) ([]*models.QueueJob, error)
}

// LeadRepository resolves the subject of a job.
type LeadRepository interface {
	LeadByID(ctx context.Context, id string) (*models.Lead, error)
}

// ActivityRepository appends audit records. Implementations return
// ErrTableNotFound when the backing table does not exist.
type ActivityRepository interface {
	Append(ctx context.Context, record *models.ActivityRecord) error
}

// FlowLoader reads a raw flow document from one storage location. found is
// false when the location has no usable document for the id; err is reserved
// for the store itself being unreachable.
type FlowLoader interface {
	Name() string
	TryLoad(ctx context.Context, id string) (doc FlowDocument, found bool, err error)
}

// FlowDocument is a flow row before normalization.
type FlowDocument struct {
	OwnerID string
	Raw     map[string]any
}
