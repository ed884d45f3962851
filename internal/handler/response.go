package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinsynth/internal/domain"
	"clinsynth/internal/llm"
	"clinsynth/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain and provider errors to HTTP status codes and error codes.
// Analysis failures keep the provider's message so callers can decide between retrying,
// sending fewer documents, or fixing configuration.
func MapDomainError(err error) (status int, code, msg string) {
	var rateLimited *llm.RateLimitError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrNoDocuments):
		return http.StatusBadRequest, "NO_DOCUMENTS", "at least one document is required"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", err.Error()
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusUnprocessableEntity, "DOCUMENT_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInvalidPage):
		return http.StatusBadRequest, "INVALID_PAGE", err.Error()
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "REQUEST_REJECTED", err.Error()
	case errors.Is(err, domain.ErrRequestRejected):
		return http.StatusUnprocessableEntity, "REQUEST_REJECTED", err.Error()
	case errors.Is(err, domain.ErrAnalysisTimeout):
		return http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT", err.Error()
	case errors.Is(err, domain.ErrNoProviderReachable):
		return http.StatusServiceUnavailable, "NO_PROVIDER_REACHABLE", err.Error()
	case errors.Is(err, domain.ErrAllProvidersFailed):
		return http.StatusBadGateway, "ANALYSIS_FAILED", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// requesterID extracts the authenticated requester from the request context.
// Returns false if auth context is missing (error response already written).
func requesterID(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.GetRequesterID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing requester context")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)

	var rateLimited *llm.RateLimitError
	if errors.As(err, &rateLimited) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rateLimited.RetryAfter.Seconds()))))
	}

	if status >= 500 {
		middleware.RequestLogger(c).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	RespondError(c, status, code, msg)
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
