package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceDocument is one uploaded clinical document with its already-extracted text.
type SourceDocument struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	MIMEType      string `json:"mime_type"`
	ExtractedText string `json:"extracted_text"`
}

// ModelInvocationResult is the unstructured answer of whichever provider answered.
type ModelInvocationResult struct {
	RawText            string
	ProviderIdentifier string // model reported by the answering provider
	ProviderName       string // chain slot that answered, e.g. "claude" or "ollama"
}

// ParsedReport is the structured view extracted from a model's markdown answer.
// KeyFindings and Recommendations are never empty once produced by the extractor.
type ParsedReport struct {
	Summary              string     `db:"summary" json:"summary"`
	KeyFindings          StringList `db:"key_findings" json:"key_findings"`
	ClinicalCorrelations *string    `db:"clinical_correlations" json:"clinical_correlations"`
	Recommendations      StringList `db:"recommendations" json:"recommendations"`
	Uncertainties        *string    `db:"uncertainties" json:"uncertainties"`
	KeyValues            StringList `db:"key_values" json:"key_values"`
	FullMarkdown         string     `db:"full_markdown" json:"full_markdown"`
}

// Report is a persisted analysis. It is immutable once stored.
type Report struct {
	ParsedReport
	ID                 uuid.UUID `db:"id" json:"id"`
	RequesterID        uuid.UUID `db:"requester_id" json:"requester_id"`
	ProviderIdentifier string    `db:"provider_identifier" json:"provider_identifier"`
	ProviderName       string    `db:"provider_name" json:"provider_name"`
	DocumentCount      int       `db:"document_count" json:"document_count"`
	ClinicalContext    string    `db:"clinical_context" json:"clinical_context,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// AuditEntry records one action taken by an actor against a resource.
type AuditEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ActorID   uuid.UUID       `db:"actor_id" json:"actor_id"`
	Action    string          `db:"action" json:"action"`
	Resource  string          `db:"resource" json:"resource"`
	Success   bool            `db:"success" json:"success"`
	Details   json.RawMessage `db:"details" json:"details"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// StringList is a []string persisted as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("StringList.Value: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList.Scan: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList.Scan: %w", err)
	}
	*l = out
	return nil
}
