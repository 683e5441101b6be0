package registry

import (
	"log/slog"
	"testing"

	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewDefault(slog.Default(), MailSettings{Transport: &mocks.MockTransport{}})
}

func TestRegistry_Executor(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		nodeType string
		want     models.NodeType
	}{
		{"email", models.NodeTypeEmail},
		{" Email ", models.NodeTypeEmail},
		{"DELAY", models.NodeTypeDelay},
		{"trigger", models.NodeTypeTrigger},
		{"condition", models.NodeTypeCondition},
		{"sms", "*"},
		{"", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Executor(tt.nodeType).Type())
		})
	}

	assert.True(t, r.IsRegistered("Email"))
	assert.False(t, r.IsRegistered("sms"))
	assert.Equal(t, []models.NodeType{"condition", "delay", "email", "trigger"}, r.Types())
}

func TestRegistry_ValidateNode(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name    string
		node    models.Node
		wantErr string
	}{
		{
			name: "raw email",
			node: models.Node{ID: "e1", Type: "email", Data: map[string]any{"subject": "Hi", "html": "<p>Hi</p>"}},
		},
		{
			name: "template email",
			node: models.Node{ID: "e2", Type: "email", Data: map[string]any{"template_id": "welcome"}},
		},
		{
			name:    "email without content",
			node:    models.Node{ID: "e3", Type: "email", Data: map[string]any{"from": "a@example.com"}},
			wantErr: "schema validation failed",
		},
		{
			name:    "email with wrong subject type",
			node:    models.Node{ID: "e4", Type: "email", Data: map[string]any{"subject": 42}},
			wantErr: "e4",
		},
		{
			name: "delay as string",
			node: models.Node{ID: "d1", Type: "delay", Data: map[string]any{"minutes": "15"}},
		},
		{
			name:    "delay as object",
			node:    models.Node{ID: "d2", Type: "delay", Data: map[string]any{"minutes": map[string]any{}}},
			wantErr: "schema validation failed",
		},
		{
			name: "unknown type without data",
			node: models.Node{ID: "x", Type: "sms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateNode(tt.node)
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
