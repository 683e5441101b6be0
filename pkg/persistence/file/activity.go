package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ActivityRepository appends JSON lines to activities/<lead_id>.jsonl. The
// activities directory is never created implicitly; without it every append
// reports persistence.ErrTableNotFound.
type ActivityRepository struct {
	p *Persistence
}

// Append writes one record.
func (ar *ActivityRepository) Append(_ context.Context, record *models.ActivityRecord) error {
	if err := validateID(record.LeadID); err != nil {
		return fmt.Errorf("invalid lead id %q: %w", record.LeadID, err)
	}

	ar.p.mu.Lock()
	defer ar.p.mu.Unlock()

	if _, err := os.Stat(filepath.Join(ar.p.root, activitiesDir)); errors.Is(err, fs.ErrNotExist) {
		return persistence.NewStoreError("AppendActivity", record.LeadID, persistence.ErrTableNotFound)
	}

	entry := *record
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	f, err := os.OpenFile(ar.p.path(activitiesDir, record.LeadID, ".jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return persistence.Unavailable("AppendActivity", record.LeadID, err)
	}

	_, err = f.Write(append(line, '\n'))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return persistence.Unavailable("AppendActivity", record.LeadID, err)
	}

	return nil
}

// Activities reads back the records of a lead, oldest first.
func (fp *Persistence) Activities(leadID string) ([]models.ActivityRecord, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	body, err := os.ReadFile(fp.path(activitiesDir, leadID, ".jsonl"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.ActivityRecord{}, nil
		}

		return nil, err
	}

	records := make([]models.ActivityRecord, 0)
	decoder := json.NewDecoder(bytes.NewReader(body))

	for decoder.More() {
		var record models.ActivityRecord

		if err := decoder.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}

		records = append(records, record)
	}

	return records, nil
}
