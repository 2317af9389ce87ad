package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-chat-go/internal/model"
)

type stubQueryService struct {
	domain   string
	answer   string
	routeErr error

	retrainErr error
	built      []string
	failed     map[string]string
	rebuildErr error
}

func (s *stubQueryService) Init(context.Context) error { return nil }

func (s *stubQueryService) Route(_ context.Context, query string) (string, string, error) {
	if s.routeErr != nil {
		return "", "", s.routeErr
	}
	return s.domain, s.answer, nil
}

func (s *stubQueryService) Retrain(context.Context) error { return s.retrainErr }

func (s *stubQueryService) Rebuild(context.Context) ([]string, map[string]string, error) {
	return s.built, s.failed, s.rebuildErr
}

func newTestRouter(svc *stubQueryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	queryHandler := NewQueryHandler(svc)
	adminHandler := NewAdminHandler(svc)
	r.GET("/api/v1/health", queryHandler.Health)
	r.POST("/api/v1/predict", queryHandler.Predict)
	r.POST("/api/v1/admin/retrain", adminHandler.Retrain)
	r.POST("/api/v1/admin/rebuild", adminHandler.Rebuild)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredict_OK(t *testing.T) {
	r := newTestRouter(&stubQueryService{domain: "finance", answer: "check your banking app"})

	w := postJSON(t, r, "/api/v1/predict", `{"query":"how do I check my balance"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "finance", resp.Domain)
	assert.Equal(t, "check your banking app", resp.Answer)
}

func TestPredict_EmptyQuery(t *testing.T) {
	r := newTestRouter(&stubQueryService{domain: "finance", answer: "unused"})

	for _, body := range []string{`{"query":""}`, `{}`, `not json`} {
		w := postJSON(t, r, "/api/v1/predict", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Contains(t, w.Body.String(), "query is required")
	}
}

func TestPredict_RouteError(t *testing.T) {
	r := newTestRouter(&stubQueryService{routeErr: errors.New("generation failed")})

	w := postJSON(t, r, "/api/v1/predict", `{"query":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to answer query")
	// Internal detail never leaks to the client.
	assert.NotContains(t, w.Body.String(), "generation failed")
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubQueryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestAdminRetrain(t *testing.T) {
	r := newTestRouter(&stubQueryService{})
	w := postJSON(t, r, "/api/v1/admin/retrain", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "classifier retrained")

	r = newTestRouter(&stubQueryService{retrainErr: errors.New("corpus missing")})
	w = postJSON(t, r, "/api/v1/admin/retrain", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminRebuild(t *testing.T) {
	r := newTestRouter(&stubQueryService{
		built:  []string{"finance", "healthcare"},
		failed: map[string]string{"legal": "no documents for domain"},
	})

	w := postJSON(t, r, "/api/v1/admin/rebuild", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"built":["finance","healthcare"]`)
	assert.Contains(t, w.Body.String(), `"legal":"no documents for domain"`)
}
