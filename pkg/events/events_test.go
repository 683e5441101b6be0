package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobEvents(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	job := &models.QueueJob{
		ID:         "job-1",
		OwnerID:    "owner-1",
		FlowID:     "flow-1",
		LeadID:     "lead-1",
		NextNodeID: "email-1",
		RunAt:      now.Add(time.Hour),
	}

	t.Run("enqueued", func(t *testing.T) {
		event := NewJobEnqueued("evt-1", job, "job-0", now)

		assert.Equal(t, JobEnqueuedEvent, event.GetType())
		assert.Equal(t, "email-1", event.NextNodeID)
		assert.Equal(t, "job-0", event.SourceJobID)
		assert.Equal(t, now.Add(time.Hour), event.RunAt)
	})

	t.Run("completed at the end of a flow", func(t *testing.T) {
		event := NewJobCompleted("evt-2", job, "email", "", now)

		assert.Equal(t, JobCompletedEvent, event.GetType())
		assert.True(t, event.FlowFinished)
		assert.Equal(t, "email-1", event.NodeID)
	})

	t.Run("failed round trips through json", func(t *testing.T) {
		event := NewJobFailed("evt-3", job, "transport failure: timeout", now)

		payload, err := json.Marshal(event)
		require.NoError(t, err)

		var decoded JobFailed
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, JobFailedEvent, decoded.Type)
		assert.Equal(t, "lead-1", decoded.LeadID)
		assert.Equal(t, "transport failure: timeout", decoded.Error)
	})
}
