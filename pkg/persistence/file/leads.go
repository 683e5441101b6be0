package file

import (
	"context"
	"errors"
	"io/fs"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// LeadRepository reads leads from leads/<id>.json.
type LeadRepository struct {
	p *Persistence
}

// LeadByID retrieves a lead by its ID.
func (lr *LeadRepository) LeadByID(_ context.Context, id string) (*models.Lead, error) {
	if validateID(id) != nil {
		return nil, persistence.NewStoreError("LeadByID", id, persistence.ErrLeadNotFound)
	}

	var lead models.Lead

	err := lr.p.readJSON(leadsDir, id, &lead)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError("LeadByID", id, persistence.ErrLeadNotFound)
		}

		return nil, persistence.Unavailable("LeadByID", id, err)
	}

	return &lead, nil
}

// SaveLead stores a lead.
func (fp *Persistence) SaveLead(lead *models.Lead) error {
	if err := validateID(lead.ID); err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	return fp.writeJSON(leadsDir, lead.ID, lead)
}
