// Package routes cung cấp tất cả routing functions cho service.
//
// Cấu trúc:
//   - api.go: API routes (/v1/*) và health routes
//   - web.go: trang chủ, /metrics
//   - middleware.go: request ID, access log, HTTP metrics
//
// Sử dụng:
//
//	routes.SetupAllRoutes(router, handlers, m, logger)
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-classifier/app/controllers"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/internal/metrics"
)

// Handlers các controller cần đăng ký
type Handlers struct {
	Address *controllers.AddressController
	Admin   *controllers.AdminController
	Health  *controllers.HealthController
}

// SetupAllRoutes thiết lập middleware và tất cả routes
func SetupAllRoutes(router *gin.Engine, h Handlers, m *metrics.Metrics, log *zap.Logger) {
	router.Use(gin.Recovery(), requestID(), accessLog(logger.OrNop(log).Named("http")), httpMetrics(m))

	SetupWebRoutes(router)
	SetupHealthRoutes(router, h.Health)
	SetupAPIRoutes(router, h.Address, h.Admin)
	SetupMetricsRoutes(router)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}
