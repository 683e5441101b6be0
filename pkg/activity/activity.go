// Package activity records the best-effort audit trail of lead transitions.
package activity

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// Recorder appends activity records. Implementations never fail the caller.
type Recorder interface {
	Record(ctx context.Context, record *models.ActivityRecord)
}

// Logger writes records to an ActivityRepository. Once the store reports the
// table does not exist, every later call returns without touching it.
type Logger struct {
	repo     persistence.ActivityRepository
	logger   *slog.Logger
	disabled atomic.Bool
	now      func() time.Time
}

func NewLogger(logger *slog.Logger, repo persistence.ActivityRepository) *Logger {
	return &Logger{
		repo:   repo,
		logger: logger.With("module", "activity"),
		now:    time.Now,
	}
}

func (l *Logger) Record(ctx context.Context, record *models.ActivityRecord) {
	if l.disabled.Load() {
		return
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = l.now().UTC()
	}

	err := l.repo.Append(ctx, record)
	if err == nil {
		return
	}

	if persistence.IsTableNotFound(err) {
		if l.disabled.CompareAndSwap(false, true) {
			l.logger.InfoContext(ctx, "Activity store not found, activity logging disabled")
		}

		return
	}

	l.logger.DebugContext(ctx, "Failed to record activity",
		"lead_id", record.LeadID,
		"type", record.Type,
		"error", err,
	)
}

// Disabled reports whether the store was found missing.
func (l *Logger) Disabled() bool {
	return l.disabled.Load()
}

// Noop drops every record.
type Noop struct{}

func (Noop) Record(context.Context, *models.ActivityRecord) {}
