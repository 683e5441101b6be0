package mocks

import (
	"context"

	"github.com/dukex/leadflow/pkg/mail"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of mail.Transport interface.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, message mail.Message) (mail.SendResult, error) {
	args := m.Called(ctx, message)

	return args.Get(0).(mail.SendResult), args.Error(1)
}
