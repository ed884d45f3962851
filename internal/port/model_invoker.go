package port

import (
	"context"

	"clinsynth/internal/domain"
)

// ModelInvoker sends a prompt through the provider chain and returns the first answer.
type ModelInvoker interface {
	Invoke(ctx context.Context, systemInstruction, userMessage string) (*domain.ModelInvocationResult, error)
}
