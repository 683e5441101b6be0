package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ActivityRepository appends to lead_activities.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append inserts one activity record. A missing lead_activities table is
// reported as persistence.ErrTableNotFound.
func (ar *ActivityRepository) Append(ctx context.Context, record *models.ActivityRecord) error {
	meta := record.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal activity meta: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO lead_activities (lead_id, owner_id, type, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = ar.db.ExecContext(ctx, query,
		record.LeadID,
		record.OwnerID,
		string(record.Type),
		record.Message,
		string(metaJSON),
		createdAt.UTC(),
	)
	if err != nil {
		if isSchemaMissing(err) {
			return persistence.NewStoreError("AppendActivity", record.LeadID, persistence.ErrTableNotFound)
		}

		return persistence.Unavailable("AppendActivity", record.LeadID, err)
	}

	return nil
}
