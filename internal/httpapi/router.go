// Package httpapi exposes the assessment engine as a JSON HTTP API.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/logging"
	"github.com/ppiankov/compliancewatch/internal/ratelimit"
)

// RequestIDHeader carries the per-request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// NewRouter builds the gin engine with every route registered.
func NewRouter(a *app.App, version string) *gin.Engine {
	h := NewHandler(a, version)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", h.Health)

	limited := rateLimiter(ratelimit.New(a.Config().RateLimit))

	v1 := r.Group("/v1")
	v1.POST("/assess", limited, h.Assess)
	v1.POST("/assess/context", limited, h.AssessContext)
	v1.POST("/score", limited, h.CalculateScore)
	v1.GET("/demo/:category", h.DemoPayload)
	v1.POST("/demo/:category/assess", limited, h.AssessDemo)
	v1.GET("/schema/:category", h.SchemaHint)
	v1.POST("/seed", h.Seed)
	v1.POST("/policies", h.IngestPolicy)
	v1.POST("/cases", h.IngestCase)
	v1.GET("/documents/:id", h.GetDocument)
	v1.GET("/history", h.ListHistory)
	v1.GET("/history/:id", h.GetHistory)

	return r
}

// requestLogger attaches a request-scoped logger and logs each request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		logger := logging.Default().With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), logger))

		start := time.Now()
		c.Next()

		attrs := []any{"status", c.Writer.Status(), "duration", time.Since(start)}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			if err := c.Errors.Last(); err != nil {
				attrs = append(attrs, slog.Any("error", err.Err))
			}
			logger.Error("request failed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Info("request rejected", attrs...)
		default:
			logger.Debug("request completed", attrs...)
		}
	}
}

// rateLimiter rejects clients over their per-route budget with 429.
func rateLimiter(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := l.Allow(c.ClientIP(), c.FullPath())
		if !result.Exceeded {
			c.Next()
			return
		}
		c.Header("Retry-After", strconv.Itoa(int(l.RetryAfter().Seconds())))
		respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", errors.New(result.Reason))
		c.Abort()
	}
}
