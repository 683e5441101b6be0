package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// LeadRepository reads leads owned by the CRM side of the application.
type LeadRepository struct {
	db *sql.DB
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// LeadByID retrieves a lead by its ID.
func (lr *LeadRepository) LeadByID(ctx context.Context, id string) (*models.Lead, error) {
	query := `
		SELECT id::text, COALESCE(owner_id::text, ''), COALESCE(email, ''),
			COALESCE(name, ''), COALESCE(phone, '')
		FROM leads
		WHERE id::text = $1
	`

	var lead models.Lead

	err := lr.db.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.OwnerID,
		&lead.Email,
		&lead.Name,
		&lead.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isSchemaMissing(err) {
			return nil, persistence.NewStoreError("LeadByID", id, persistence.ErrLeadNotFound)
		}

		return nil, persistence.Unavailable("LeadByID", id, err)
	}

	return &lead, nil
}
