package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"squabble_server/internal/logger"
	"squabble_server/internal/service"
)

type Options struct {
	AllowedOrigin string
	RatePerSecond float64
	Burst         int
	// контекст сервера, отменяется при остановке
	BaseContext context.Context
}

// Handler поднимает websocket и запускает клиента
type Handler struct {
	hub        *Hub
	dispatcher *Dispatcher
	auth       *service.Authenticator
	upgrader   websocket.Upgrader
	opts       Options
	log        *slog.Logger
}

func NewHandler(hub *Hub, sessions Sessions, auth *service.Authenticator, opts Options) *Handler {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	allowed := opts.AllowedOrigin
	return &Handler{
		hub:        hub,
		dispatcher: NewDispatcher(hub, sessions),
		auth:       auth,
		opts:       opts,
		log:        logger.Component("ws_handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowed == "" {
					return true
				}
				return r.Header.Get("Origin") == allowed
			},
		},
	}
}

// ServeWS - токен в ?token=, либо Telegram init data в ?initData= или заголовке
func (h *Handler) ServeWS(c *gin.Context) {
	var playerID int64
	if h.auth != nil && h.auth.Enabled() {
		initData := c.Query("initData")
		if initData == "" {
			initData = c.GetHeader("X-Telegram-Init-Data")
		}
		id, err := h.auth.Authenticate(c.Query("token"), initData)
		if err != nil {
			h.log.Debug("ws auth rejected", "error", err, "ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		playerID = id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	var limiter *rate.Limiter
	if h.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.RatePerSecond), max(h.opts.Burst, 1))
	}

	client := NewClient(conn, playerID, limiter)
	h.log.Debug("ws connected", "conn_id", client.ID, "player_id", playerID)
	go client.Run(h.opts.BaseContext, h.hub, h.dispatcher)
}
