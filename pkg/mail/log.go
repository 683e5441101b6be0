package mail

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogTransport only logs messages. It backs local runs without a relay.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With("module", "mail_log")}
}

func (t *LogTransport) Send(ctx context.Context, message Message) (SendResult, error) {
	if err := message.Validate(); err != nil {
		return SendResult{}, err
	}

	id := uuid.New().String()

	t.logger.InfoContext(ctx, "Email sent",
		"message_id", id,
		"to", message.To,
		"template_id", message.TemplateID,
		"subject", message.Subject,
	)

	return SendResult{MessageID: id}, nil
}
