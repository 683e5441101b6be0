package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Send(t *testing.T) {
	var received Message

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(slog.Default(), server.URL, "secret", time.Second)

	result, err := transport.Send(context.Background(), Message{
		To:          "ada@example.com",
		From:        "team@example.com",
		TemplateID:  "welcome",
		DynamicData: map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, "welcome", received.TemplateID)
	assert.Equal(t, "Ada", received.DynamicData["name"])
}

func TestHTTPTransport_SendErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message Message
		timeout time.Duration
		check   func(t *testing.T, err error)
	}{
		{
			name: "non 2xx response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("relay down"))
			},
			message: Message{To: "ada@example.com", Subject: "Hi"},
			timeout: time.Second,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
				assert.Contains(t, err.Error(), "relay down")
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			},
			message: Message{To: "ada@example.com", Subject: "Hi"},
			timeout: 20 * time.Millisecond,
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "request failed")
			},
		},
		{
			name:    "invalid message",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			message: Message{Subject: "Hi"},
			timeout: time.Second,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidMessage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPTransport(slog.Default(), server.URL, "", tt.timeout).Send(context.Background(), tt.message)
			tt.check(t, err)
		})
	}
}

func TestMessageID(t *testing.T) {
	header := http.Header{}
	assert.Equal(t, "", messageID(header, []byte("accepted")))
	assert.Equal(t, "abc", messageID(header, []byte(`{"message_id":"abc"}`)))

	header.Set("X-Message-Id", "from-header")
	assert.Equal(t, "from-header", messageID(header, []byte(`{"id":"abc"}`)))
}
