package port

import (
	"context"

	"clinsynth/internal/domain"
)

// DocumentSource loads already-extracted source documents stored by the upload collaborator.
type DocumentSource interface {
	Load(ctx context.Context, keys []string) ([]domain.SourceDocument, error)
}
