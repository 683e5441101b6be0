package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/leadflow/pkg/channels/gochannel"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	received := make(chan *events.JobFailed, 1)

	require.NoError(t, bus.Handle(events.JobFailedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.JobFailed)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	job := &models.QueueJob{ID: "job-1", FlowID: "flow-1", LeadID: "lead-1", NextNodeID: "email-1"}

	// unhandled types are acked and dropped
	require.NoError(t, bus.Publish(ctx, job.LeadID, events.NewJobEnqueued(bus.GenerateID(), job, "", time.Now())))
	require.NoError(t, bus.Publish(ctx, job.LeadID, events.NewJobFailed(bus.GenerateID(), job, "boom", time.Now())))

	select {
	case event := <-received:
		assert.Equal(t, "job-1", event.JobID)
		assert.Equal(t, "boom", event.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("job.failed event was not delivered")
	}
}
