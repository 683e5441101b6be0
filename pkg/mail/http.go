package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxResponseBody = 4096

// HTTPTransport posts every message as JSON to a mail relay endpoint.
type HTTPTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPTransport creates a transport whose requests are bounded by timeout.
func NewHTTPTransport(logger *slog.Logger, endpoint, apiKey string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("module", "mail_http"),
	}
}

// HTTPError is a non-2xx response from the relay.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (t *HTTPTransport) Send(ctx context.Context, message Message) (SendResult, error) {
	if err := message.Validate(); err != nil {
		return SendResult{}, err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "leadflow/1.0")

	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{}, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return SendResult{MessageID: messageID(resp.Header, respBody)}, nil
}

// messageID looks for the id in the usual response header, then in a JSON body.
func messageID(header http.Header, body []byte) string {
	if id := header.Get("X-Message-Id"); id != "" {
		return id
	}

	var parsed map[string]any
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}

	for _, key := range []string{"message_id", "messageId", "id"} {
		if id, ok := parsed[key].(string); ok && id != "" {
			return id
		}
	}

	return ""
}
