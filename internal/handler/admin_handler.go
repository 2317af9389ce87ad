package handler

import (
	"net/http"

	"domain-chat-go/internal/service"
	"domain-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the maintenance endpoints behind admin auth.
type AdminHandler struct {
	queryService service.QueryService
}

// NewAdminHandler creates a new AdminHandler instance.
func NewAdminHandler(queryService service.QueryService) *AdminHandler {
	return &AdminHandler{queryService: queryService}
}

// Retrain handles POST /api/v1/admin/retrain: refits and persists the
// domain classifier from the current corpus.
func (h *AdminHandler) Retrain(c *gin.Context) {
	log.Info("[AdminHandler] retrain requested")
	if err := h.queryService.Retrain(c.Request.Context()); err != nil {
		log.Errorf("[AdminHandler] retrain failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retrain failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "classifier retrained"})
}

// Rebuild handles POST /api/v1/admin/rebuild: rebuilds and persists every
// domain index.
func (h *AdminHandler) Rebuild(c *gin.Context) {
	log.Info("[AdminHandler] index rebuild requested")
	built, failed, err := h.queryService.Rebuild(c.Request.Context())
	if err != nil {
		log.Errorf("[AdminHandler] rebuild failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rebuild failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "rebuild finished",
		"data":    gin.H{"built": built, "failed": failed},
	})
}
