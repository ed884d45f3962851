package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"clinsynth/internal/service"
)

// MockReportService is a mock implementation of service.ReportService.
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) artifact(args mock.Arguments) (*service.Artifact, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}

func (m *MockReportService) RenderPDF(ctx context.Context, requesterID, reportID uuid.UUID) (*service.Artifact, error) {
	return m.artifact(m.Called(ctx, requesterID, reportID))
}

func (m *MockReportService) RenderPreview(ctx context.Context, requesterID, reportID uuid.UUID, page int) (*service.Artifact, error) {
	return m.artifact(m.Called(ctx, requesterID, reportID, page))
}

func (m *MockReportService) ExportXLSX(ctx context.Context, requesterID, reportID uuid.UUID) (*service.Artifact, error) {
	return m.artifact(m.Called(ctx, requesterID, reportID))
}

func (m *MockReportService) ExportCSV(ctx context.Context, requesterID, reportID uuid.UUID) (*service.Artifact, error) {
	return m.artifact(m.Called(ctx, requesterID, reportID))
}
