package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// очки участников игры по убыванию
func (h *Handler) GetLeaderboard(c *gin.Context) {
	gameID := c.Param("id")
	rows, err := h.Rooms.Leaderboard(c.Request.Context(), gameID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	c.JSON(http.StatusOK, gin.H{
		"gameId":      gameID,
		"leaderboard": rows,
	})
}

// текущее состояние комнаты
func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.Rooms.RoomSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
