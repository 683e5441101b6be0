package engine

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/activity"
	"github.com/dukex/leadflow/pkg/flowstore"
	"github.com/dukex/leadflow/pkg/mail"
	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type harness struct {
	store     *file.Persistence
	transport *mocks.MockTransport
	registry  *registry.Registry
	clock     *testClock
	processor *Processor
}

func newHarness(t *testing.T, deps func(*Dependencies), opts ...Option) *harness {
	t.Helper()

	h := &harness{
		store:     file.NewPersistence(t.TempDir()),
		transport: &mocks.MockTransport{},
		clock:     &testClock{now: time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)},
	}

	h.registry = registry.NewDefault(slog.Default(), registry.MailSettings{
		Transport:   h.transport,
		DefaultFrom: "team@example.com",
		Timeout:     time.Second,
	})

	d := Dependencies{
		Queue:     h.store.QueueRepository(),
		Leads:     h.store.LeadRepository(),
		Flows:     flowstore.New(slog.Default(), h.store.FlowLoaders()...),
		Executors: h.registry,
		Activity:  activity.NewLogger(slog.Default(), h.store.ActivityRepository()),
	}
	if deps != nil {
		deps(&d)
	}

	h.processor = NewProcessor(slog.Default(), d, append([]Option{WithClock(h.clock.Now)}, opts...)...)

	return h
}

func (h *harness) sendSucceeds() {
	h.transport.On("Send", mock.Anything, mock.Anything).Return(mail.SendResult{MessageID: "msg-1"}, nil)
}

func (h *harness) saveFlow(t *testing.T, id string, doc map[string]any) {
	t.Helper()
	require.NoError(t, h.store.SaveFlowDocument(id, doc, false))
}

func (h *harness) saveLead(t *testing.T, overrides ...func(*models.Lead)) *models.Lead {
	t.Helper()

	lead := testutil.CreateTestLead(overrides...)
	require.NoError(t, h.store.SaveLead(lead))

	return lead
}

func (h *harness) enqueue(t *testing.T, flowID, leadID, nodeID string) *models.QueueJob {
	t.Helper()

	job := &models.QueueJob{
		OwnerID:    "owner-1",
		FlowID:     flowID,
		LeadID:     leadID,
		NextNodeID: nodeID,
		RunAt:      h.clock.Now(),
	}

	created, err := h.store.QueueRepository().Enqueue(context.Background(), job)
	require.NoError(t, err)
	require.True(t, created)

	return job
}

func (h *harness) jobs(t *testing.T, leadID string) []*models.QueueJob {
	t.Helper()

	jobs, err := h.store.QueueRepository().JobsByLead(context.Background(), leadID)
	require.NoError(t, err)

	return jobs
}

func (h *harness) jobAt(t *testing.T, leadID, nodeID string) *models.QueueJob {
	t.Helper()

	for _, job := range h.jobs(t, leadID) {
		if job.NextNodeID == nodeID {
			return job
		}
	}

	t.Fatalf("no job for node %s", nodeID)

	return nil
}

func countByStatus(jobs []*models.QueueJob) map[models.JobStatus]int {
	counts := map[models.JobStatus]int{}
	for _, job := range jobs {
		counts[job.Status]++
	}

	return counts
}
