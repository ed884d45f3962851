package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinsynth/internal/domain"
	"clinsynth/internal/extract"
	"clinsynth/internal/logger"
	"clinsynth/internal/port"
	"clinsynth/internal/prompt"
)

// AnalyzeInput is the DTO for one analysis. Documents carry inline text; ObjectKeys
// name extracted-text objects loaded from the document source. Both may be combined,
// inline documents first.
type AnalyzeInput struct {
	RequesterID     uuid.UUID
	Documents       []domain.SourceDocument
	ObjectKeys      []string
	ClinicalContext string
}

// AnalysisService defines the analysis contract.
type AnalysisService interface {
	Analyze(ctx context.Context, input *AnalyzeInput) (*domain.Report, error)
	Get(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error)
}

type analysisService struct {
	invoker port.ModelInvoker
	reports port.ReportRepository
	source  port.DocumentSource
	audit   auditor
	log     *zap.Logger
}

// NewAnalysisService creates a new AnalysisService. source may be nil, in which case
// requests naming object keys are rejected.
func NewAnalysisService(
	invoker port.ModelInvoker,
	reports port.ReportRepository,
	source port.DocumentSource,
	auditRepo port.AuditRepository,
	log *zap.Logger,
) AnalysisService {
	log = logger.Component(log, "analysis")
	return &analysisService{
		invoker: invoker,
		reports: reports,
		source:  source,
		audit:   auditor{repo: auditRepo, log: log},
		log:     log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, input *AnalyzeInput) (*domain.Report, error) {
	docs, err := s.collect(ctx, input)
	if err != nil {
		s.audit.record(ctx, input.RequesterID, domain.AuditAnalysisCreate, "analysis", false, map[string]interface{}{
			"stage": "documents",
			"error": err.Error(),
		})
		return nil, err
	}

	p := prompt.Build(docs, input.ClinicalContext)

	start := time.Now()
	res, err := s.invoker.Invoke(ctx, p.SystemInstruction, p.UserMessage)
	if err != nil {
		s.log.Warn("analysis failed",
			zap.String("requester_id", input.RequesterID.String()),
			zap.Int("documents", len(docs)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		s.audit.record(ctx, input.RequesterID, domain.AuditAnalysisCreate, "analysis", false, map[string]interface{}{
			"stage":          "invoke",
			"document_count": len(docs),
			"error":          err.Error(),
		})
		return nil, err
	}

	report := &domain.Report{
		ParsedReport:       extract.Extract(res.RawText),
		ID:                 uuid.New(),
		RequesterID:        input.RequesterID,
		ProviderIdentifier: res.ProviderIdentifier,
		ProviderName:       res.ProviderName,
		DocumentCount:      len(docs),
		ClinicalContext:    strings.TrimSpace(input.ClinicalContext),
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.log.Error("saving report failed",
			zap.String("report_id", report.ID.String()),
			zap.String("requester_id", input.RequesterID.String()),
			zap.Error(err),
		)
		s.audit.record(ctx, input.RequesterID, domain.AuditAnalysisCreate, reportResource(report.ID), false, map[string]interface{}{
			"stage":          "persist",
			"provider":       report.ProviderName,
			"document_count": report.DocumentCount,
			"error":          err.Error(),
		})
		return nil, fmt.Errorf("analysisService.Analyze: saving report: %w", err)
	}

	s.log.Info("analysis completed",
		zap.String("report_id", report.ID.String()),
		zap.String("provider", report.ProviderName),
		zap.String("model", report.ProviderIdentifier),
		zap.Int("documents", len(docs)),
		zap.Int("findings", len(report.KeyFindings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.audit.record(ctx, input.RequesterID, domain.AuditAnalysisCreate, reportResource(report.ID), true, map[string]interface{}{
		"provider":       report.ProviderName,
		"model":          report.ProviderIdentifier,
		"document_count": report.DocumentCount,
	})

	return report, nil
}

// collect assembles the ordered document list and validates it.
func (s *analysisService) collect(ctx context.Context, input *AnalyzeInput) ([]domain.SourceDocument, error) {
	docs := make([]domain.SourceDocument, 0, len(input.Documents)+len(input.ObjectKeys))
	docs = append(docs, input.Documents...)

	if len(input.ObjectKeys) > 0 {
		if s.source == nil {
			return nil, errors.New("analysisService.collect: no document source configured")
		}
		loaded, err := s.source.Load(ctx, input.ObjectKeys)
		if err != nil {
			return nil, fmt.Errorf("analysisService.collect: loading documents: %w", err)
		}
		docs = append(docs, loaded...)
	}

	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		if strings.TrimSpace(docs[i].DisplayName) == "" {
			docs[i].DisplayName = fmt.Sprintf("Document %d", i+1)
		}
		if strings.TrimSpace(docs[i].ExtractedText) == "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, docs[i].DisplayName)
		}
	}
	return docs, nil
}

func (s *analysisService) Get(ctx context.Context, requesterID, reportID uuid.UUID) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, requesterID, reportID)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, requesterID, domain.AuditReportView, reportResource(reportID), true, nil)
	return report, nil
}

func (s *analysisService) List(ctx context.Context, requesterID uuid.UUID, offset, limit int) ([]domain.Report, int, error) {
	return s.reports.ListByRequester(ctx, requesterID, offset, limit)
}
