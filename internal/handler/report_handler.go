package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinsynth/internal/service"
)

// ReportHandler serves artifacts regenerated from stored reports.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

type artifactFunc func(ctx context.Context, requesterID, reportID uuid.UUID) (*service.Artifact, error)

func (h *ReportHandler) serve(c *gin.Context, disposition string, generate artifactFunc) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}
	reportID, ok := parseReportID(c)
	if !ok {
		return
	}

	art, err := generate(c.Request.Context(), requester, reportID)
	if err != nil {
		HandleError(c, err)
		return
	}
	writeArtifact(c, disposition, art)
}

func writeArtifact(c *gin.Context, disposition string, art *service.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, art.Filename))
	if art.Pages > 0 {
		c.Header("X-Page-Count", strconv.Itoa(art.Pages))
	}
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

// PDF handles GET /api/v1/reports/:id/pdf
// @Summary Download the report as PDF
// @Tags reports
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} APIResponse "Report not found"
// @Security BearerAuth
// @Router /reports/{id}/pdf [get]
func (h *ReportHandler) PDF(c *gin.Context) {
	h.serve(c, "attachment", h.reportService.RenderPDF)
}

// Preview handles GET /api/v1/reports/:id/pages/:page/preview
// @Summary Render one page of the report as PNG
// @Tags reports
// @Produce image/png
// @Param id path string true "Report ID"
// @Param page path int true "One-based page number"
// @Success 200 {file} binary
// @Failure 400 {object} APIResponse "Page out of range"
// @Security BearerAuth
// @Router /reports/{id}/pages/{page}/preview [get]
func (h *ReportHandler) Preview(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PAGE", "page must be a positive integer")
		return
	}
	h.serve(c, "inline", func(ctx context.Context, requesterID, reportID uuid.UUID) (*service.Artifact, error) {
		return h.reportService.RenderPreview(ctx, requesterID, reportID, page)
	})
}

// XLSX handles GET /api/v1/reports/:id/findings.xlsx
// @Summary Export findings, key values and recommendations as a workbook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/{id}/findings.xlsx [get]
func (h *ReportHandler) XLSX(c *gin.Context) {
	h.serve(c, "attachment", h.reportService.ExportXLSX)
}

// CSV handles GET /api/v1/reports/:id/findings.csv
// @Summary Export findings, key values and recommendations as CSV
// @Tags reports
// @Produce text/csv
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/{id}/findings.csv [get]
func (h *ReportHandler) CSV(c *gin.Context) {
	h.serve(c, "attachment", h.reportService.ExportCSV)
}
