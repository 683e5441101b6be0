package registry

import (
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/mail"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes/delay"
	"github.com/dukex/leadflow/pkg/nodes/email"
	"github.com/dukex/leadflow/pkg/nodes/passthrough"
)

// MailSettings configures the email executor.
type MailSettings struct {
	Transport   mail.Transport
	DefaultFrom string
	Timeout     time.Duration
}

// NewDefault returns a registry with every built-in node type.
func NewDefault(logger *slog.Logger, settings MailSettings) *Registry {
	r := NewRegistry(logger)

	r.Register(passthrough.New(models.NodeTypeTrigger, "Trigger"))
	r.Register(passthrough.New(models.NodeTypeCondition, "Condition"))
	r.Register(delay.New())
	r.Register(email.New(logger, settings.Transport,
		email.WithDefaultFrom(settings.DefaultFrom),
		email.WithTimeout(settings.Timeout),
	))

	return r
}
