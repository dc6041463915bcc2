package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/address-classifier/app/responses"
)

// HealthCheck kiểm tra một dependency (redis, mongo, meilisearch...)
type HealthCheck func(ctx context.Context) error

// HealthController health, readiness và liveness
type HealthController struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthController tạo HealthController với các readiness checks
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthController{checks: checks, timeout: 2 * time.Second}
}

// Live process còn sống
func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	})
}

// Ready chạy tất cả checks, 503 nếu có check lỗi
func (hc *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hc.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(hc.checks))
	for name, check := range hc.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, responses.HealthResponse{
		Status:    state,
		Timestamp: time.Now().Unix(),
		Checks:    results,
	})
}

// Health alias của Ready cho load balancer
func (hc *HealthController) Health(c *gin.Context) {
	hc.Ready(c)
}
