package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinsynth/internal/domain"
)

// MockModelInvoker is a mock implementation of port.ModelInvoker.
type MockModelInvoker struct {
	mock.Mock
}

func (m *MockModelInvoker) Invoke(ctx context.Context, systemInstruction, userMessage string) (*domain.ModelInvocationResult, error) {
	args := m.Called(ctx, systemInstruction, userMessage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelInvocationResult), args.Error(1)
}
