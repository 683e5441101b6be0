package models

import "time"

// ActivityType classifies an audit trail entry.
type ActivityType string

const (
	ActivityNodeEntered   ActivityType = "node_entered"
	ActivityDelayStarted  ActivityType = "delay_started"
	ActivityEmailSent     ActivityType = "email_sent"
	ActivityNodeCompleted ActivityType = "node_completed"
	ActivityFlowCompleted ActivityType = "flow_completed"
	ActivityError         ActivityType = "error"
)

// ActivityRecord is an append-only audit entry for a lead.
type ActivityRecord struct {
	LeadID    string         `json:"lead_id"`
	OwnerID   string         `json:"owner_id"`
	Type      ActivityType   `json:"type"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
