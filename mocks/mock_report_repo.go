package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clinsynth/internal/domain"
)

type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Create(ctx context.Context, report *domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepo) GetByID(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error) {
	args := m.Called(ctx, requesterID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error) {
	args := m.Called(ctx, requesterID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Report), args.Int(1), args.Error(2)
}
