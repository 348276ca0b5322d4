package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"squabble_server/internal/logger"
)

const RequestIDKey = "request_id"

// CORS для фронта на другом домене. Пустой allowedOrigin пропускает любой Origin.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID берет X-Request-Id клиента или выдает новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// AccessLog пишет запрос в slog после ответа
func AccessLog() gin.HandlerFunc {
	log := logger.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
			"request_id", c.GetString(RequestIDKey),
		)
	}
}

// NoStore - ответы API всегда актуальные
func NoStore() gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
}

type visitor struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPRateLimiter - лимитер на каждый ip, давно не активные удаляются
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    max(burst, 1),
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastAccess = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup удаляет лимитеры без обращений дольше idle
func (l *IPRateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	cutoff := l.now().Add(-l.idle)
	for key, v := range l.visitors {
		if v.lastAccess.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
