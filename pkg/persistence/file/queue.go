package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

// QueueRepository stores one JSON file per job under queue/.
type QueueRepository struct {
	p *Persistence
}

func (qr *QueueRepository) all() ([]*models.QueueJob, error) {
	root := os.DirFS(filepath.Join(qr.p.root, queueDir))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list job files: %w", err)
	}

	jobs := make([]*models.QueueJob, 0, len(files))

	for _, file := range files {
		var job models.QueueJob

		err := qr.p.readJSON(queueDir, strings.TrimSuffix(file, ".json"), &job)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to load job %s: %w", file, err)
		}

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

func (qr *QueueRepository) load(op, id string) (*models.QueueJob, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewStoreError(op, id, persistence.ErrJobNotFound)
	}

	var job models.QueueJob

	err := qr.p.readJSON(queueDir, id, &job)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError(op, id, persistence.ErrJobNotFound)
		}

		return nil, persistence.Unavailable(op, id, err)
	}

	return &job, nil
}

// DueJobs returns pending jobs whose run_at has passed, earliest first.
func (qr *QueueRepository) DueJobs(_ context.Context, now time.Time, limit int) ([]*models.QueueJob, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	jobs, err := qr.all()
	if err != nil {
		return nil, persistence.Unavailable("DueJobs", "", err)
	}

	due := make([]*models.QueueJob, 0)

	for _, job := range jobs {
		if job.Status == models.JobStatusPending && !job.RunAt.After(now) {
			due = append(due, job)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].RunAt.Equal(due[j].RunAt) {
			return due[i].ID < due[j].ID
		}

		return due[i].RunAt.Before(due[j].RunAt)
	})

	if limit >= 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

// Claim moves a pending job to processing.
func (qr *QueueRepository) Claim(_ context.Context, id string, now time.Time) (bool, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	job, err := qr.load("Claim", id)
	if err != nil {
		if persistence.IsJobNotFound(err) {
			return false, nil
		}

		return false, err
	}

	if job.Status != models.JobStatusPending {
		return false, nil
	}

	job.Status = models.JobStatusProcessing
	job.Attempts++
	job.UpdatedAt = now.UTC()

	err = qr.p.writeJSON(queueDir, id, job)
	if err != nil {
		return false, persistence.Unavailable("Claim", id, err)
	}

	return true, nil
}

// Complete marks a job as done.
func (qr *QueueRepository) Complete(_ context.Context, id string, now time.Time) error {
	return qr.finish("Complete", id, models.JobStatusDone, nil, now)
}

// Fail marks a job as failed and stores the reason.
func (qr *QueueRepository) Fail(_ context.Context, id string, reason string, now time.Time) error {
	return qr.finish("Fail", id, models.JobStatusFailed, &reason, now)
}

func (qr *QueueRepository) finish(op, id string, status models.JobStatus, reason *string, now time.Time) error {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	job, err := qr.load(op, id)
	if err != nil {
		return err
	}

	processedAt := now.UTC()
	job.Status = status
	job.Error = reason
	job.UpdatedAt = processedAt
	job.ProcessedAt = &processedAt

	err = qr.p.writeJSON(queueDir, id, job)
	if err != nil {
		return persistence.Unavailable(op, id, err)
	}

	return nil
}

// Enqueue inserts a pending job unless one with the same key is already pending.
func (qr *QueueRepository) Enqueue(_ context.Context, job *models.QueueJob) (bool, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	jobs, err := qr.all()
	if err != nil {
		return false, persistence.Unavailable("Enqueue", job.ID, err)
	}

	key := job.Key()

	for _, existing := range jobs {
		if existing.Status == models.JobStatusPending && existing.Key() == key {
			return false, nil
		}
	}

	now := time.Now().UTC()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	if err := validateID(job.ID); err != nil {
		return false, fmt.Errorf("invalid job id %q: %w", job.ID, err)
	}

	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}

	job.UpdatedAt = now
	job.Status = models.JobStatusPending
	job.RunAt = job.RunAt.UTC()
	job.Error = nil
	job.ProcessedAt = nil

	err = qr.p.writeJSON(queueDir, job.ID, job)
	if err != nil {
		return false, persistence.Unavailable("Enqueue", job.ID, err)
	}

	return true, nil
}

// RequeueStale returns processing jobs not updated since before to pending.
func (qr *QueueRepository) RequeueStale(_ context.Context, before time.Time, now time.Time) (int, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	jobs, err := qr.all()
	if err != nil {
		return 0, persistence.Unavailable("RequeueStale", "", err)
	}

	pending := map[models.JobKey]bool{}

	for _, job := range jobs {
		if job.Status == models.JobStatusPending {
			pending[job.Key()] = true
		}
	}

	requeued := 0

	for _, job := range jobs {
		if job.Status != models.JobStatusProcessing || !job.UpdatedAt.Before(before) || pending[job.Key()] {
			continue
		}

		job.Status = models.JobStatusPending
		job.UpdatedAt = now.UTC()

		err := qr.p.writeJSON(queueDir, job.ID, job)
		if err != nil {
			return requeued, persistence.Unavailable("RequeueStale", job.ID, err)
		}

		pending[job.Key()] = true
		requeued++
	}

	return requeued, nil
}

// JobByID retrieves a job by its ID.
func (qr *QueueRepository) JobByID(_ context.Context, id string) (*models.QueueJob, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	return qr.load("JobByID", id)
}

// JobsByLead returns every job of a lead, newest first.
func (qr *QueueRepository) JobsByLead(_ context.Context, leadID string) ([]*models.QueueJob, error) {
	qr.p.mu.Lock()
	defer qr.p.mu.Unlock()

	jobs, err := qr.all()
	if err != nil {
		return nil, persistence.Unavailable("JobsByLead", leadID, err)
	}

	result := make([]*models.QueueJob, 0)

	for _, job := range jobs {
		if job.LeadID == leadID {
			result = append(result, job)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
