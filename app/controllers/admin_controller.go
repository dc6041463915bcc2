package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/helpers/logger"
)

// AdminController controller cho các chức năng admin
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, log *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger.OrNop(log),
	}
}

// InvalidateCache xóa cache candidates; body rỗng hoặc không có records = xóa toàn bộ
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	startTime := time.Now()
	records := requests.BatchClassifyRequest{Records: req.Records}.AddressRecords()

	cleared, deleted, err := ac.adminService.InvalidateCache(c.Request.Context(), records)
	if err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INVALIDATE_ERROR",
			Message: "Lỗi invalidate cache: " + err.Error(),
		})
		return
	}

	ac.logger.Info("Invalidate cache thành công",
		zap.Bool("cleared", cleared),
		zap.Int("deleted", deleted),
		zap.Duration("duration", time.Since(startTime)))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Invalidate cache thành công",
		Data:    responses.CacheInvalidateResponse{Cleared: cleared, Deleted: deleted},
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Lỗi lấy stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "STATS_ERROR",
			Message: "Lỗi lấy stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
