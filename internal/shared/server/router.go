package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tenant-ingest/internal/services/health"
	"tenant-ingest/internal/shared/metrics"
	"tenant-ingest/internal/shared/server/middleware"
	"tenant-ingest/internal/shared/server/respond"
	"tenant-ingest/internal/uploads"
)

const uploadRateGroup = "UPLOAD"

// RouterDeps carries the handlers and HTTP policy for NewRouter.
type RouterDeps struct {
	UploadHandler *uploads.Handler
	Health        *health.Service
	CORSOrigins   []string
	UploadRate    float64
	UploadBurst   int
	Limiter       *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSOrigins),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.Limiter,
			GroupFor: func(c *gin.Context) string {
				if c.FullPath() == "/upload" {
					return uploadRateGroup
				}
				return ""
			},
			Rules: map[string]middleware.RateLimitRule{
				uploadRateGroup: {Rate: deps.UploadRate, Burst: deps.UploadBurst},
			},
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterRoutes(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
