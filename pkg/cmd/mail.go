package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/mail"
)

// NewMailTransport creates the transport used by email nodes. The log
// transport only writes the message to the log.
func NewMailTransport(logger *slog.Logger, provider, endpoint, apiKey string, timeout time.Duration) (mail.Transport, error) {
	switch provider {
	case "http":
		if endpoint == "" {
			return nil, fmt.Errorf("mail endpoint is required for the http transport")
		}

		return mail.NewHTTPTransport(logger, endpoint, apiKey, timeout), nil
	case "", "log":
		return mail.NewLogTransport(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
