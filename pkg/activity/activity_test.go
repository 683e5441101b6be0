package activity

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLogger_Record(t *testing.T) {
	repo := &mocks.MockActivityRepository{}
	repo.On("Append", mock.Anything, mock.MatchedBy(func(r *models.ActivityRecord) bool {
		return r.Type == models.ActivityEmailSent && !r.CreatedAt.IsZero()
	})).Return(nil).Once()

	logger := NewLogger(slog.Default(), repo)
	logger.Record(context.Background(), &models.ActivityRecord{LeadID: "lead-1", Type: models.ActivityEmailSent})

	repo.AssertExpectations(t)
	assert.False(t, logger.Disabled())
}

func TestLogger_MissingTableDisablesLogging(t *testing.T) {
	repo := &mocks.MockActivityRepository{}
	repo.On("Append", mock.Anything, mock.Anything).
		Return(persistence.NewStoreError("AppendActivity", "lead-1", persistence.ErrTableNotFound)).Once()

	logger := NewLogger(slog.Default(), repo)

	for range 3 {
		logger.Record(context.Background(), &models.ActivityRecord{LeadID: "lead-1", Type: models.ActivityNodeEntered})
	}

	assert.True(t, logger.Disabled())
	repo.AssertNumberOfCalls(t, "Append", 1)
}

func TestLogger_OtherErrorsAreSwallowed(t *testing.T) {
	repo := &mocks.MockActivityRepository{}
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	logger := NewLogger(slog.Default(), repo)

	assert.NotPanics(t, func() {
		logger.Record(context.Background(), &models.ActivityRecord{LeadID: "lead-1"})
		logger.Record(context.Background(), &models.ActivityRecord{LeadID: "lead-1"})
	})

	assert.False(t, logger.Disabled())
	repo.AssertNumberOfCalls(t, "Append", 2)
}

func TestNoop(t *testing.T) {
	var recorder Recorder = Noop{}

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), &models.ActivityRecord{})
	})
}
