package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clinsynth/internal/domain"
	"clinsynth/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, input *service.AnalyzeInput) (*domain.Report, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error) {
	args := m.Called(ctx, requesterID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error) {
	args := m.Called(ctx, requesterID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Report), args.Int(1), args.Error(2)
}
