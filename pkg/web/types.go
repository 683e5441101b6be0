package web

import (
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

// ProcessResponse is returned by the invocation endpoint.
type ProcessResponse struct {
	OK        bool      `json:"ok"`
	Now       time.Time `json:"now"`
	Found     int       `json:"found"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   bool      `json:"skipped,omitempty"`
}

// ProcessErrorResponse is returned when the queue cannot be queried.
type ProcessErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// EnrollRequest represents the request body for starting a lead on a flow.
type EnrollRequest struct {
	FlowID  string     `json:"flow_id"            validate:"required"`
	LeadID  string     `json:"lead_id"            validate:"required"`
	OwnerID string     `json:"owner_id,omitempty"`
	ListID  *string    `json:"list_id,omitempty"  validate:"omitempty,min=1"`
	NodeID  string     `json:"node_id,omitempty"`
	RunAt   *time.Time `json:"run_at,omitempty"`
}

// EnrollResponse reports the first job of an enrollment. Created is false
// when the lead was already waiting at that node.
type EnrollResponse struct {
	Job     *models.QueueJob `json:"job"`
	Created bool             `json:"created"`
}

// JobsResponse lists the jobs of a lead.
type JobsResponse struct {
	LeadID string             `json:"lead_id"`
	Jobs   []*models.QueueJob `json:"jobs"`
}
