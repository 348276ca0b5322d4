package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"squabble_server/internal/domain"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// последние записи аудита по игре, ?limit=N
func (h *Handler) GetAuditTrail(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxAuditLimit)
	}

	gameID := c.Param("id")
	logs, err := h.Audit.GetByGame(c.Request.Context(), gameID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get audit trail"})
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"gameId": gameID,
		"events": logs,
	})
}
