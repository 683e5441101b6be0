// Package email provides the node that sends an email to the lead.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/mail"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/dukex/leadflow/pkg/template"
)

const DefaultTimeout = 15 * time.Second

// Node sends one message per job through a mail.Transport.
type Node struct {
	transport   mail.Transport
	defaultFrom string
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Node.
type Option func(*Node)

// WithDefaultFrom sets the sender used when the node data has none.
func WithDefaultFrom(from string) Option {
	return func(n *Node) { n.defaultFrom = from }
}

// WithTimeout bounds every send. Non-positive values keep DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(n *Node) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

func New(logger *slog.Logger, transport mail.Transport, opts ...Option) *Node {
	n := &Node{
		transport: transport,
		timeout:   DefaultTimeout,
		logger:    logger.With("module", "email_node"),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

func (n *Node) Type() models.NodeType {
	return models.NodeTypeEmail
}

func (n *Node) Name() string {
	return "Email"
}

func (n *Node) Execute(ctx context.Context, input protocol.ExecutionInput) (protocol.Outcome, error) {
	lead := input.Lead
	if lead == nil || strings.TrimSpace(lead.Email) == "" {
		return protocol.Outcome{}, protocol.ErrNoRecipient
	}

	message, err := n.buildMessage(input.Node, lead)
	if err != nil {
		return protocol.Outcome{}, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	result, err := n.transport.Send(sendCtx, message)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("%w: %w", protocol.ErrTransportFailure, err)
	}

	n.logger.DebugContext(ctx, "Email handed to transport",
		"job_id", input.Job.ID,
		"lead_id", lead.ID,
		"message_id", result.MessageID,
	)

	meta := map[string]any{
		"node_id":    input.Node.ID,
		"to":         message.To,
		"message_id": result.MessageID,
	}
	if message.IsTemplate() {
		meta["template_id"] = message.TemplateID
	} else {
		meta["subject"] = message.Subject
	}

	return protocol.Outcome{
		Advance:      true,
		RunAt:        input.Now,
		ActivityType: models.ActivityEmailSent,
		Message:      "Email sent to " + message.To,
		Meta:         meta,
	}, nil
}

func (n *Node) buildMessage(node *models.Node, lead *models.Lead) (mail.Message, error) {
	data := node.Data
	leadData := lead.TemplateData()

	templateData := make(map[string]any, len(leadData)+1)
	for k, v := range leadData {
		templateData[k] = v
	}

	templateData["lead"] = leadData

	message := mail.Message{
		To:   strings.TrimSpace(lead.Email),
		From: firstString(data, "from"),
	}
	if message.From == "" {
		message.From = n.defaultFrom
	}

	if templateID := firstString(data, "template_id", "templateId"); templateID != "" {
		dynamic, _ := data["dynamic_data"].(map[string]any)
		if dynamic == nil {
			dynamic, _ = data["dynamicData"].(map[string]any)
		}

		rendered, err := template.RenderValues(dynamic, templateData)
		if err != nil {
			return mail.Message{}, fmt.Errorf("failed to render dynamic data: %w", err)
		}

		if _, ok := rendered["lead"]; !ok {
			rendered["lead"] = leadData
		}

		message.TemplateID = templateID
		message.DynamicData = rendered

		return message, nil
	}

	subject, err := template.Render(firstString(data, "subject"), templateData)
	if err != nil {
		return mail.Message{}, fmt.Errorf("failed to render subject: %w", err)
	}

	html, err := template.Render(firstString(data, "html", "body"), templateData)
	if err != nil {
		return mail.Message{}, fmt.Errorf("failed to render html: %w", err)
	}

	message.Subject = subject
	message.HTML = html

	if err := message.Validate(); err != nil {
		return mail.Message{}, fmt.Errorf("email node %s: %w", node.ID, err)
	}

	return message, nil
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	return ""
}
