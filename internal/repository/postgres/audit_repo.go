package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor_id, action, resource, success, details)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ActorID, entry.Action, entry.Resource, entry.Success, []byte(details))
	if err != nil {
		return fmt.Errorf("auditRepo.Create: %w", err)
	}
	return nil
}
