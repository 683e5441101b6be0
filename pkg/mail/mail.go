// Package mail defines the transport the email node sends through.
package mail

import (
	"context"
	"errors"
)

// ErrInvalidMessage is returned for a message without a recipient or content.
var ErrInvalidMessage = errors.New("invalid message")

// Message is either template based (TemplateID with DynamicData) or raw
// (Subject with HTML).
type Message struct {
	To          string         `json:"to"`
	From        string         `json:"from,omitempty"`
	TemplateID  string         `json:"template_id,omitempty"`
	DynamicData map[string]any `json:"dynamic_data,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	HTML        string         `json:"html,omitempty"`
}

// IsTemplate reports whether the message is sent through a stored template.
func (m Message) IsTemplate() bool {
	return m.TemplateID != ""
}

// Validate checks the message carries a recipient and one of the two content shapes.
func (m Message) Validate() error {
	if m.To == "" {
		return errors.Join(ErrInvalidMessage, errors.New("missing recipient"))
	}

	if !m.IsTemplate() && m.Subject == "" && m.HTML == "" {
		return errors.Join(ErrInvalidMessage, errors.New("missing template id or subject/html"))
	}

	return nil
}

// SendResult carries the provider's message id when it returns one.
type SendResult struct {
	MessageID string `json:"message_id,omitempty"`
}

// Transport sends a single message.
type Transport interface {
	Send(ctx context.Context, message Message) (SendResult, error)
}
