package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/leadflow/pkg/flowstore"
	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlowService(t *testing.T) (*Flow, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	reg := registry.NewDefault(slog.Default(), registry.MailSettings{Transport: &mocks.MockTransport{}})

	return NewFlow(flowstore.New(slog.Default(), p.FlowLoaders()...), reg), p
}

func TestFlow_Validate(t *testing.T) {
	service, p := newFlowService(t)

	require.NoError(t, p.SaveFlowDocument("good", testutil.Reactflow(testutil.Chain(
		testutil.CreateTestNode(testutil.WithID("start")),
		testutil.DelayNode("wait", 10),
		testutil.EmailNode("send"),
	), "owner-1"), false))

	report, err := service.Validate(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, report.Valid, report.Problems)
	assert.Equal(t, "start", report.EntryID)
	assert.Equal(t, 3, report.Nodes)
	assert.Equal(t, 2, report.Edges)

	_, err = service.Validate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlow_Check(t *testing.T) {
	service, _ := newFlowService(t)

	g := testutil.Chain(
		testutil.CreateTestNode(testutil.WithID("a"), testutil.WithType("sms")),
		testutil.CreateTestNode(testutil.WithID("b"), testutil.WithType("email"), testutil.WithData(map[string]any{})),
	)
	g.Edges = append(g.Edges, models.Edge{Source: "b", Target: "a"}, models.Edge{Source: "b", Target: "ghost"})

	report := service.Check(&models.Flow{ID: "bad", Graph: g})

	assert.False(t, report.Valid)
	assert.Empty(t, report.EntryID)
	assert.Len(t, report.Warnings, 1)

	joined := ""
	for _, problem := range report.Problems {
		joined += problem + "\n"
	}

	assert.Contains(t, joined, "no entry node")
	assert.Contains(t, joined, "edge target ghost")
	assert.Contains(t, joined, "cycle detected")
	assert.Contains(t, joined, "schema validation failed")
}
