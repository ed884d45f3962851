package port

import (
	"context"

	"github.com/google/uuid"

	"clinsynth/internal/domain"
)

// ReportRepository persists analyzed reports keyed by report id and requester id.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error)
}
