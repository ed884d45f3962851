package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

// auditor writes audit entries. Failures are logged and never reach the caller.
type auditor struct {
	repo port.AuditRepository
	log  *zap.Logger
}

func (a auditor) record(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, resource string, success bool, details map[string]interface{}) {
	if a.repo == nil {
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		a.log.Warn("audit: marshal details", zap.String("action", string(action)), zap.Error(err))
		raw = []byte("{}")
	}

	entry := &domain.AuditEntry{
		ID:       uuid.New(),
		ActorID:  actorID,
		Action:   string(action),
		Resource: resource,
		Success:  success,
		Details:  raw,
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.Warn("audit: failed to write entry",
			zap.String("action", string(action)),
			zap.String("resource", resource),
			zap.Error(err),
		)
	}
}

func reportResource(id uuid.UUID) string {
	return "report:" + id.String()
}
