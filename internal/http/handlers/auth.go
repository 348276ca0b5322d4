package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	InitData string `json:"initData" binding:"required"`
}

// обмен Telegram init data на токен для websocket
func (h *Handler) IssueToken(c *gin.Context) {
	if h.Auth == nil || !h.Auth.CanIssue() {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoAuth.Error()})
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initData is required"})
		return
	}

	user, err := h.Auth.ValidateInitData(req.InitData)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	token, err := h.Auth.IssueToken(user.ID, h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"playerId": user.ID,
		"username": user.Username,
	})
}
