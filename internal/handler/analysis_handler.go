package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinsynth/internal/domain"
	"clinsynth/internal/service"
)

// AnalysisHandler handles analysis and stored report endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// AnalyzeRequest is the body of POST /api/v1/analyses.
type AnalyzeRequest struct {
	Documents  []DocumentInput `json:"documents"`
	ObjectKeys []string        `json:"object_keys"`
	Context    string          `json:"context"`
}

// DocumentInput is one inline document with already-extracted text.
type DocumentInput struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	MIMEType      string `json:"mime_type"`
	ExtractedText string `json:"extracted_text"`
}

// Analyze handles POST /api/v1/analyses
// @Summary Analyze clinical documents
// @Description Synthesize a clinical report from inline documents and stored extracted-text objects
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Documents and optional clinical context"
// @Success 201 {object} APIResponse{data=domain.Report} "Report created"
// @Failure 400 {object} APIResponse "No documents or empty document"
// @Failure 422 {object} APIResponse "Provider rejected the request"
// @Failure 503 {object} APIResponse "No provider reachable"
// @Failure 504 {object} APIResponse "Analysis timed out"
// @Security BearerAuth
// @Router /analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON with documents, object_keys and context")
		return
	}

	docs := make([]domain.SourceDocument, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.SourceDocument{
			ID:            d.ID,
			DisplayName:   d.DisplayName,
			MIMEType:      d.MIMEType,
			ExtractedText: d.ExtractedText,
		}
	}

	report, err := h.analysisService.Analyze(c.Request.Context(), &service.AnalyzeInput{
		RequesterID:     requester,
		Documents:       docs,
		ObjectKeys:      req.ObjectKeys,
		ClinicalContext: req.Context,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, report)
}

// Get handles GET /api/v1/reports/:id
// @Summary Get a stored report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} APIResponse{data=domain.Report}
// @Failure 404 {object} APIResponse "Report not found"
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}
	reportID, ok := parseReportID(c)
	if !ok {
		return
	}

	report, err := h.analysisService.Get(c.Request.Context(), requester, reportID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// List handles GET /api/v1/reports
// @Summary List own reports
// @Tags reports
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} APIResponse{data=[]domain.Report}
// @Security BearerAuth
// @Router /reports [get]
func (h *AnalysisHandler) List(c *gin.Context) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	reports, total, err := h.analysisService.List(c.Request.Context(), requester, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	RespondPaginated(c, reports, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func parseReportID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return uuid.Nil, false
	}
	return id, true
}
