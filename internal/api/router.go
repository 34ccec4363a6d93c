package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// Routes is implemented by every service handler.
type Routes interface {
	SetupRoutes(r gin.IRouter)
}

// NewRouter builds the engine shared by all services: recovery, metrics, access log,
// health, readiness and /metrics, followed by the routes of each handler.
func NewRouter(checks map[string]ReadyCheck, handlers ...Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", healthCheck)
	router.GET("/ready", readinessCheck(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, h := range handlers {
		h.SetupRoutes(router)
	}
	return router
}

// healthCheck handles health check requests
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck answers 503 naming the first dependency that fails
func readinessCheck(checks map[string]ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":     "not ready",
					"dependency": name,
					"error":      err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"time":   time.Now().Unix(),
		})
	}
}

// respondError writes err as {"error", "code"} with the status of its code.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		fields := append(util.TraceFields(c.Request.Context()),
			zap.String("path", c.FullPath()),
			zap.String("code", string(code)),
			zap.Error(err))
		util.GetLogger().Error("Request failed", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": apperr.MessageOf(err),
		"code":  code,
	})
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, apperr.Wrap(apperr.CodeInvalidArgument, "invalid request body: "+err.Error(), err))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.Newf(apperr.CodeInvalidArgument, "invalid %s", name))
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
