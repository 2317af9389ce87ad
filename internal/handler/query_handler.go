// Package handler contains the Gin HTTP handlers.
package handler

import (
	"net/http"

	"domain-chat-go/internal/model"
	"domain-chat-go/internal/service"
	"domain-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// QueryHandler serves the query-routing endpoint.
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler creates a new QueryHandler instance.
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// Predict handles POST /api/v1/predict. The body carries the raw query;
// the response pairs the routed domain with the generated answer.
func (h *QueryHandler) Predict(c *gin.Context) {
	var req model.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		log.Warnf("[QueryHandler] rejected request: missing or empty query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	domain, answer, err := h.queryService.Route(c.Request.Context(), req.Query)
	if err != nil {
		log.Errorf("[QueryHandler] routing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer query"})
		return
	}

	c.JSON(http.StatusOK, model.PredictResponse{Domain: domain, Answer: answer})
}

// Health handles GET /api/v1/health.
func (h *QueryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
