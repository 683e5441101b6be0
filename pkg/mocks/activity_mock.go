package mocks

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockActivityRepository is a mock implementation of persistence.ActivityRepository interface.
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, record *models.ActivityRecord) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}
