package httpserver

import (
	"context"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"squabble_server/internal/http/handlers"
	"squabble_server/internal/http/middleware"
	"squabble_server/internal/service"
	"squabble_server/internal/ws"
)

type Deps struct {
	Rooms         handlers.Rooms
	Audit         handlers.AuditTrail
	Auth          *service.Authenticator
	WS            *ws.Handler
	AllowedOrigin string
	APIRatePerSec float64
	APIBurst      int
	Version       string
}

// NewRouter собирает маршруты: /ws, /health, /metrics и /api
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), middleware.CORS(d.AllowedOrigin))

	h := handlers.New(d.Rooms, d.Audit, d.Auth, d.Version)

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.WS != nil {
		r.GET("/ws", d.WS.ServeWS)
	}

	limiter := middleware.NewIPRateLimiter(d.APIRatePerSec, d.APIBurst)
	go cleanupLoop(ctx, limiter)

	api := r.Group("/api",
		limiter.Middleware(),
		middleware.NoStore(),
		ginGzip.Gzip(ginGzip.DefaultCompression),
	)
	api.POST("/auth/token", h.IssueToken)
	api.GET("/games/:id/session", h.GetSession)
	api.GET("/games/:id/leaderboard", h.GetLeaderboard)
	if d.Audit != nil {
		api.GET("/games/:id/audit", h.GetAuditTrail)
	}

	return r
}

func cleanupLoop(ctx context.Context, l *middleware.IPRateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}
