package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinsynth/internal/domain"
)

// MockDocumentSource is a mock implementation of port.DocumentSource.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) Load(ctx context.Context, keys []string) ([]domain.SourceDocument, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceDocument), args.Error(1)
}
