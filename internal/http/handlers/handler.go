package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"squabble_server/internal/domain"
	"squabble_server/internal/game"
	"squabble_server/internal/service"
)

// Rooms - чтение состояния комнат для REST
type Rooms interface {
	RoomSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error)
	Leaderboard(ctx context.Context, gameID string) ([]*domain.GameParticipant, error)
}

// AuditTrail - журнал событий игры
type AuditTrail interface {
	GetByGame(ctx context.Context, gameID string, limit int) ([]*domain.AuditLog, error)
}

type Handler struct {
	Rooms    Rooms
	Audit    AuditTrail
	Auth     *service.Authenticator
	TokenTTL time.Duration
	Version  string
}

func New(rooms Rooms, audit AuditTrail, auth *service.Authenticator, version string) *Handler {
	return &Handler{Rooms: rooms, Audit: audit, Auth: auth, TokenTTL: 24 * time.Hour, Version: version}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.Version})
}

// ошибки сервиса в http статус
func writeError(c *gin.Context, err error) {
	ve, ok := service.AsValidation(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusBadRequest
	switch ve.Code {
	case service.CodeGameNotFound:
		status = http.StatusNotFound
	case service.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": ve.Message, "code": ve.Code})
}

var errNoAuth = errors.New("auth disabled")
