package domain

import "errors"

var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoDocuments   = errors.New("at least one document is required")
	ErrEmptyDocument = errors.New("document has no extracted text")
	ErrInvalidPage   = errors.New("page number out of range")

	// ErrDocumentNotFound is a requested source object that does not exist.
	ErrDocumentNotFound = errors.New("source document not found")

	// Analysis failures, surfaced to callers so they can pick retry, smaller input or reconfiguration.
	ErrNoProviderReachable = errors.New("no model provider is reachable")
	ErrRequestRejected     = errors.New("model provider rejected the request")
	ErrAnalysisTimeout     = errors.New("analysis exceeded its time budget")
	ErrAllProvidersFailed  = errors.New("all model providers failed")
)
