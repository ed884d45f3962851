package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

type reportRepo struct {
	db *sqlx.DB
}

// NewReportRepo creates a new PostgreSQL-backed ReportRepository.
func NewReportRepo(db *sqlx.DB) port.ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, report *domain.Report) error {
	query := `INSERT INTO reports (id, requester_id, summary, key_findings, clinical_correlations,
		recommendations, uncertainties, key_values, full_markdown, provider_identifier,
		provider_name, document_count, clinical_context)
		VALUES (:id, :requester_id, :summary, :key_findings, :clinical_correlations,
		:recommendations, :uncertainties, :key_values, :full_markdown, :provider_identifier,
		:provider_name, :document_count, :clinical_context)
		RETURNING created_at`

	rows, err := r.db.NamedQueryContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("reportRepo.Create: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&report.CreatedAt); err != nil {
			return fmt.Errorf("reportRepo.Create scan: %w", err)
		}
	}
	return rows.Err()
}

func (r *reportRepo) GetByID(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error) {
	var report domain.Report
	err := r.db.GetContext(ctx, &report,
		"SELECT * FROM reports WHERE id = $1 AND requester_id = $2", reportID, requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reportRepo.GetByID: %w", err)
	}
	return &report, nil
}

func (r *reportRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM reports WHERE requester_id = $1", requesterID)
	if err != nil {
		return nil, 0, fmt.Errorf("reportRepo.ListByRequester count: %w", err)
	}

	var reports []domain.Report
	err = r.db.SelectContext(ctx, &reports,
		`SELECT * FROM reports WHERE requester_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		requesterID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reportRepo.ListByRequester: %w", err)
	}
	return reports, total, nil
}
