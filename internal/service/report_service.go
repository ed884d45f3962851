package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinsynth/internal/csvexport"
	"clinsynth/internal/domain"
	"clinsynth/internal/logger"
	"clinsynth/internal/port"
	"clinsynth/internal/render"
	"clinsynth/internal/xlsxexport"
)

// Content types of the generated artifacts.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// Artifact is a generated download.
type Artifact struct {
	Data        []byte
	ContentType string
	Filename    string
	Pages       int
}

// ReportService regenerates downloadable artifacts from stored reports. It never calls a
// model provider.
type ReportService interface {
	RenderPDF(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error)
	RenderPreview(ctx context.Context, requesterID, reportID uuid.UUID, page int) (*Artifact, error)
	ExportXLSX(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error)
	ExportCSV(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error)
}

type reportService struct {
	reports      port.ReportRepository
	renderer     *render.Renderer
	title        string
	previewScale float64
	audit        auditor
	log          *zap.Logger
}

// NewReportService creates a new ReportService implementation.
func NewReportService(
	reports port.ReportRepository,
	renderer *render.Renderer,
	title string,
	previewScale float64,
	auditRepo port.AuditRepository,
	log *zap.Logger,
) ReportService {
	log = logger.Component(log, "report")
	return &reportService{
		reports:      reports,
		renderer:     renderer,
		title:        title,
		previewScale: previewScale,
		audit:        auditor{repo: auditRepo, log: log},
		log:          log,
	}
}

func (s *reportService) options(report *domain.Report) render.Options {
	return render.Options{
		Title: s.title,
		Subtitle: fmt.Sprintf("Generated %s | %d document(s) | %s",
			report.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
			report.DocumentCount,
			report.ProviderIdentifier,
		),
	}
}

func (s *reportService) RenderPDF(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error) {
	report, err := s.reports.GetByID(ctx, requesterID, reportID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc := s.renderer.Render(report.ParsedReport, s.options(report))

	var buf bytes.Buffer
	if err := render.EncodePDF(&buf, doc, s.renderer.Fonts(), report.CreatedAt); err != nil {
		s.audit.record(ctx, requesterID, domain.AuditReportDownload, reportResource(reportID), false, map[string]interface{}{
			"format": "pdf",
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("reportService.RenderPDF: %w", err)
	}

	s.log.Info("report rendered",
		zap.String("report_id", reportID.String()),
		zap.Int("pages", doc.PageCount()),
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.audit.record(ctx, requesterID, domain.AuditReportDownload, reportResource(reportID), true, map[string]interface{}{
		"format": "pdf",
		"pages":  doc.PageCount(),
	})

	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: ContentTypePDF,
		Filename:    csvexport.BuildFilename(s.title, "pdf", report.CreatedAt),
		Pages:       doc.PageCount(),
	}, nil
}

// RenderPreview rasterizes one one-based page of the rendered report.
func (s *reportService) RenderPreview(ctx context.Context, requesterID, reportID uuid.UUID, page int) (*Artifact, error) {
	report, err := s.reports.GetByID(ctx, requesterID, reportID)
	if err != nil {
		return nil, err
	}

	doc := s.renderer.Render(report.ParsedReport, s.options(report))

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, doc, s.renderer.Fonts(), page-1, s.previewScale); err != nil {
		s.audit.record(ctx, requesterID, domain.AuditReportDownload, reportResource(reportID), false, map[string]interface{}{
			"format": "png",
			"page":   page,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("reportService.RenderPreview: %w", err)
	}

	s.audit.record(ctx, requesterID, domain.AuditReportDownload, reportResource(reportID), true, map[string]interface{}{
		"format": "png",
		"page":   page,
	})

	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: ContentTypePNG,
		Filename:    csvexport.BuildFilename(fmt.Sprintf("%s page %d", s.title, page), "png", report.CreatedAt),
		Pages:       doc.PageCount(),
	}, nil
}

func (s *reportService) ExportXLSX(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error) {
	report, err := s.reports.GetByID(ctx, requesterID, reportID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = xlsxexport.Write(&buf, &report.ParsedReport, xlsxexport.Meta{
		Title:     s.title,
		ReportID:  report.ID.String(),
		Provider:  report.ProviderName,
		Model:     report.ProviderIdentifier,
		CreatedAt: report.CreatedAt.UTC().Format(time.RFC3339),
		Documents: report.DocumentCount,
	})
	if err != nil {
		return nil, fmt.Errorf("reportService.ExportXLSX: %w", err)
	}

	s.audit.record(ctx, requesterID, domain.AuditReportExport, reportResource(reportID), true, map[string]interface{}{
		"format": "xlsx",
	})
	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: ContentTypeXLSX,
		Filename:    csvexport.BuildFilename(s.title, "xlsx", report.CreatedAt),
	}, nil
}

func (s *reportService) ExportCSV(ctx context.Context, requesterID, reportID uuid.UUID) (*Artifact, error) {
	report, err := s.reports.GetByID(ctx, requesterID, reportID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: header: %w", err)
	}
	if err := w.WriteReport(&report.ParsedReport); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reportService.ExportCSV: %w", err)
	}

	s.audit.record(ctx, requesterID, domain.AuditReportExport, reportResource(reportID), true, map[string]interface{}{
		"format": "csv",
	})
	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: ContentTypeCSV,
		Filename:    csvexport.BuildFilename(s.title, "csv", report.CreatedAt),
	}, nil
}
