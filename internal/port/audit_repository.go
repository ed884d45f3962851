package port

import (
	"context"

	"clinsynth/internal/domain"
)

// AuditRepository is the append-only audit sink.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}
