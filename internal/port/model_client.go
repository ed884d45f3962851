package port

import "context"

// CompletionRequest is a single system + user prompt sent to a model provider.
type CompletionRequest struct {
	SystemInstruction string
	UserMessage       string
}

// InputSize returns the prompt size in bytes, used for observability.
func (r CompletionRequest) InputSize() int {
	return len(r.SystemInstruction) + len(r.UserMessage)
}

// CompletionResult is the raw text answer and the model the provider reports having used.
type CompletionResult struct {
	Text  string
	Model string
}

// ModelClient abstracts one hosted or local language model provider.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}
