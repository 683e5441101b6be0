package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/engine"
	"github.com/dukex/leadflow/pkg/flowstore"
	"github.com/dukex/leadflow/pkg/lock"
	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heldLock struct{}

func (heldLock) TryLock(context.Context, string, time.Duration) (lock.ReleaseFunc, bool, error) {
	return nil, false, nil
}

func newQueue(t *testing.T, locker lock.Locker) (*Queue, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	reg := registry.NewDefault(slog.Default(), registry.MailSettings{Transport: &mocks.MockTransport{}})
	processor := engine.NewProcessor(slog.Default(), engine.Dependencies{
		Queue:     p.QueueRepository(),
		Leads:     p.LeadRepository(),
		Flows:     flowstore.New(slog.Default(), p.FlowLoaders()...),
		Executors: reg,
	})

	return NewQueue(slog.Default(), p, processor, locker, time.Minute), p
}

func TestQueue_ProcessAndInspect(t *testing.T) {
	queue, p := newQueue(t, nil)
	ctx := context.Background()

	lead := testutil.CreateTestLead()
	require.NoError(t, p.SaveLead(lead))
	require.NoError(t, p.SaveFlowDocument("flow-1", testutil.Document(testutil.Chain(
		testutil.CreateTestNode(testutil.WithID("start")),
		testutil.DelayNode("wait", 30),
	)), false))

	job, created, err := queue.Enroll(ctx, EnrollRequest{FlowID: "flow-1", LeadID: lead.ID})
	require.NoError(t, err)
	require.True(t, created)

	result, err := queue.Process(ctx, 0)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, models.BatchResult{Found: 1, Processed: 1}, result.BatchResult)
	assert.False(t, result.Now.IsZero())

	stored, err := queue.Job(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusDone, stored.Status)

	history, err := queue.LeadJobs(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = queue.Job(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestQueue_ProcessSkipsWhenLocked(t *testing.T) {
	queue, _ := newQueue(t, heldLock{})

	result, err := queue.Process(context.Background(), 25)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, models.BatchResult{}, result.BatchResult)
}

func TestQueue_EnrollValidation(t *testing.T) {
	queue, _ := newQueue(t, nil)

	_, _, err := queue.Enroll(context.Background(), EnrollRequest{FlowID: "flow-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, _, err = queue.Enroll(context.Background(), EnrollRequest{FlowID: "flow-1", LeadID: "lead-1"})
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestQueue_HealthCheck(t *testing.T) {
	queue, _ := newQueue(t, nil)

	message, ok := queue.HealthCheck(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)
}
