package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

const jobColumns = `id, owner_id, flow_id, lead_id, list_id, next_node_id, run_at,
	status, attempts, error, created_at, updated_at, processed_at`

// QueueRepository handles flow_queue database operations.
type QueueRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(db *sql.DB, logger *slog.Logger) *QueueRepository {
	return &QueueRepository{db: db, logger: logger}
}

// DueJobs returns pending jobs whose run_at has passed, earliest first.
func (qr *QueueRepository) DueJobs(ctx context.Context, now time.Time, limit int) ([]*models.QueueJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM flow_queue
		WHERE status = 'pending' AND run_at <= $1
		ORDER BY run_at ASC, id ASC
		LIMIT $2
	`

	rows, err := qr.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, persistence.Unavailable("DueJobs", "", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			qr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	jobs, err := qr.scanJobs(rows)
	if err != nil {
		return nil, persistence.Unavailable("DueJobs", "", err)
	}

	return jobs, nil
}

// Claim moves a pending job to processing in a single conditional update, so
// two invocations can never both claim the same row.
func (qr *QueueRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE flow_queue
		SET status = 'processing', attempts = attempts + 1, updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	result, err := qr.db.ExecContext(ctx, query, id, now.UTC())
	if err != nil {
		return false, persistence.Unavailable("Claim", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

// Complete marks a job as done.
func (qr *QueueRepository) Complete(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE flow_queue
		SET status = 'done', error = NULL, processed_at = $2, updated_at = $2
		WHERE id = $1
	`

	return qr.finish(ctx, "Complete", query, id, now.UTC())
}

// Fail marks a job as failed and stores the reason.
func (qr *QueueRepository) Fail(ctx context.Context, id string, reason string, now time.Time) error {
	query := `
		UPDATE flow_queue
		SET status = 'failed', error = $3, processed_at = $2, updated_at = $2
		WHERE id = $1
	`

	return qr.finish(ctx, "Fail", query, id, now.UTC(), reason)
}

func (qr *QueueRepository) finish(ctx context.Context, op, query string, args ...any) error {
	id, _ := args[0].(string)

	result, err := qr.db.ExecContext(ctx, query, args...)
	if err != nil {
		return persistence.Unavailable(op, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read %s result: %w", op, err)
	}

	if affected == 0 {
		return persistence.NewStoreError(op, id, persistence.ErrJobNotFound)
	}

	return nil
}

// Enqueue inserts a pending job. The partial unique index on
// (flow_id, lead_id, next_node_id) WHERE status = 'pending' turns a duplicate
// into a no-op, which is reported as created == false.
func (qr *QueueRepository) Enqueue(ctx context.Context, job *models.QueueJob) (bool, error) {
	now := time.Now().UTC()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}

	job.UpdatedAt = now
	job.Status = models.JobStatusPending

	query := `
		INSERT INTO flow_queue (
			id, owner_id, flow_id, lead_id, list_id, next_node_id, run_at,
			status, attempts, error, created_at, updated_at, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, NULL, $9, $10, NULL)
		ON CONFLICT (flow_id, lead_id, next_node_id) WHERE status = 'pending' DO NOTHING
	`

	result, err := qr.db.ExecContext(ctx, query,
		job.ID,
		job.OwnerID,
		job.FlowID,
		job.LeadID,
		job.ListID,
		job.NextNodeID,
		job.RunAt.UTC(),
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return false, persistence.Unavailable("Enqueue", job.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read enqueue result: %w", err)
	}

	return affected == 1, nil
}

// RequeueStale returns jobs stuck in processing since before `before` to
// pending, unless a pending job for the same key already exists.
func (qr *QueueRepository) RequeueStale(ctx context.Context, before time.Time, now time.Time) (int, error) {
	query := `
		UPDATE flow_queue q
		SET status = 'pending', updated_at = $2
		WHERE q.status = 'processing'
			AND q.updated_at < $1
			AND NOT EXISTS (
				SELECT 1 FROM flow_queue p
				WHERE p.status = 'pending'
					AND p.flow_id = q.flow_id
					AND p.lead_id = q.lead_id
					AND p.next_node_id = q.next_node_id
			)
	`

	result, err := qr.db.ExecContext(ctx, query, before.UTC(), now.UTC())
	if err != nil {
		return 0, persistence.Unavailable("RequeueStale", "", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read requeue result: %w", err)
	}

	return int(affected), nil
}

// JobByID retrieves a job by its ID.
func (qr *QueueRepository) JobByID(ctx context.Context, id string) (*models.QueueJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewStoreError("JobByID", id, persistence.ErrJobNotFound)
	}

	query := `SELECT ` + jobColumns + ` FROM flow_queue WHERE id = $1`

	job, err := qr.scanJob(qr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("JobByID", id, persistence.ErrJobNotFound)
		}

		return nil, persistence.Unavailable("JobByID", id, err)
	}

	return job, nil
}

// JobsByLead returns every job of a lead, newest first.
func (qr *QueueRepository) JobsByLead(ctx context.Context, leadID string) ([]*models.QueueJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM flow_queue
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := qr.db.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, persistence.Unavailable("JobsByLead", leadID, err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			qr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	return qr.scanJobs(rows)
}

func (qr *QueueRepository) scanJobs(rows *sql.Rows) ([]*models.QueueJob, error) {
	jobs := make([]*models.QueueJob, 0)

	for rows.Next() {
		job, err := qr.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

// scanJob scans a queue job from a database row.
func (qr *QueueRepository) scanJob(scanner interface {
	Scan(dest ...any) error
}) (*models.QueueJob, error) {
	var (
		job         models.QueueJob
		status      string
		listID      sql.NullString
		jobError    sql.NullString
		processedAt sql.NullTime
	)

	err := scanner.Scan(
		&job.ID,
		&job.OwnerID,
		&job.FlowID,
		&job.LeadID,
		&listID,
		&job.NextNodeID,
		&job.RunAt,
		&status,
		&job.Attempts,
		&jobError,
		&job.CreatedAt,
		&job.UpdatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatus(status)

	if listID.Valid {
		job.ListID = &listID.String
	}

	if jobError.Valid {
		job.Error = &jobError.String
	}

	if processedAt.Valid {
		job.ProcessedAt = &processedAt.Time
	}

	return &job, nil
}
