package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupWebRoutes trang chủ và danh sách endpoints
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Address Completeness Classifier",
			"endpoints": map[string]string{
				"classify":    "POST /v1/addresses/classify",
				"jobs":        "POST /v1/addresses/jobs",
				"job_status":  "GET /v1/addresses/jobs/:jobID/status",
				"job_results": "GET /v1/addresses/jobs/:jobID/results",
				"job_report":  "GET /v1/addresses/jobs/:jobID/report",
				"metrics":     "GET /metrics",
			},
		})
	})
}

// SetupMetricsRoutes Prometheus scrape endpoint, dùng default registry
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
