package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/domain"
	"clinsynth/internal/handler"
	"clinsynth/internal/llm"
	"clinsynth/internal/middleware"
	"clinsynth/internal/service"
	"clinsynth/mocks"
)

func newContext(method, path string, body []byte, requester uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if requester != uuid.Nil {
		c.Set(middleware.ContextKeyRequesterID, requester)
	}
	return c, w
}

func TestAnalysisHandler_Analyze_Created(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	requester := uuid.New()

	report := &domain.Report{ID: uuid.New(), RequesterID: requester, ProviderName: "claude"}
	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(in *service.AnalyzeInput) bool {
		return in.RequesterID == requester &&
			len(in.Documents) == 1 &&
			in.Documents[0].DisplayName == "cbc.pdf" &&
			in.Documents[0].ExtractedText == "Hemoglobin 10.2 g/dL" &&
			len(in.ObjectKeys) == 1 &&
			in.ClinicalContext == "fatigue"
	})).Return(report, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"documents":   []map[string]string{{"display_name": "cbc.pdf", "extracted_text": "Hemoglobin 10.2 g/dL"}},
		"object_keys": []string{"u1/notes/visit.txt"},
		"context":     "fatigue",
	})
	c, w := newContext(http.MethodPost, "/api/v1/analyses", body, requester)

	h.Analyze(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no documents", domain.ErrNoDocuments, http.StatusBadRequest, "NO_DOCUMENTS"},
		{"no provider", &llm.UnavailableError{Provider: "claude", Reason: "no credentials", Err: llm.ErrNotConfigured}, http.StatusServiceUnavailable, "NO_PROVIDER_REACHABLE"},
		{"timeout", &llm.TimeoutError{Provider: "ollama", Err: errors.New("deadline exceeded")}, http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT"},
		{"rejected", &llm.RejectedError{Provider: "claude", StatusCode: 400, Err: errors.New("bad")}, http.StatusUnprocessableEntity, "REQUEST_REJECTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockAnalysisService)
			h := handler.NewAnalysisHandler(svc)
			svc.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err)

			c, w := newContext(http.MethodPost, "/api/v1/analyses", []byte(`{"documents":[]}`), uuid.New())
			h.Analyze(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp handler.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestAnalysisHandler_Analyze_InvalidBody(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)

	c, w := newContext(http.MethodPost, "/api/v1/analyses", []byte(`{not json`), uuid.New())
	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_Unauthenticated(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)

	c, w := newContext(http.MethodPost, "/api/v1/analyses", []byte(`{}`), uuid.Nil)
	h.Analyze(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnalysisHandler_Get(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	requester, id := uuid.New(), uuid.New()

	svc.On("Get", mock.Anything, requester, id).Return(&domain.Report{ID: id}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/reports/"+id.String(), nil, requester)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Get_InvalidID(t *testing.T) {
	h := handler.NewAnalysisHandler(new(mocks.MockAnalysisService))

	c, w := newContext(http.MethodGet, "/api/v1/reports/nope", nil, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ID")
}

func TestAnalysisHandler_Get_NotFound(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	svc.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	id := uuid.New()
	c, w := newContext(http.MethodGet, "/api/v1/reports/"+id.String(), nil, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalysisHandler_List_Pagination(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(svc)
	requester := uuid.New()

	svc.On("List", mock.Anything, requester, 0, 20).Return(nil, 0, nil)

	c, w := newContext(http.MethodGet, "/api/v1/reports?limit=500&offset=-3", nil, requester)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []domain.Report  `json:"data"`
		Meta handler.PagMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Data)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}
