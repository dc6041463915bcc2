package services

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/internal/normalizer"
)

// AdminService service quản lý admin functions
type AdminService struct {
	cache     ICacheService
	addresses *AddressService
	logger    *zap.Logger
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Uptime      string                 `json:"uptime"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
	Goroutines  int                    `json:"goroutines"`
	Cache       *CacheStats            `json:"cache,omitempty"`
	Service     map[string]interface{} `json:"service,omitempty"`
}

// NewAdminService tạo mới AdminService; cache có thể nil khi cache.driver=none
func NewAdminService(cache ICacheService, addresses *AddressService, log *zap.Logger) *AdminService {
	return &AdminService{
		cache:     cache,
		addresses: addresses,
		logger:    logger.OrNop(log).Named("admin_service"),
	}
}

// InvalidateCache xóa cache candidates. records rỗng thì xóa toàn bộ,
// ngược lại xóa đúng key mà pipeline đã dùng cho từng bản ghi.
func (as *AdminService) InvalidateCache(ctx context.Context, records []models.AddressRecord) (cleared bool, deleted int, err error) {
	if as.cache == nil {
		return false, 0, nil
	}

	if len(records) == 0 {
		if err := as.cache.Clear(ctx); err != nil {
			return false, 0, fmt.Errorf("lỗi clear cache: %w", err)
		}
		as.logger.Info("Candidate cache cleared")
		return true, 0, nil
	}

	for _, record := range records {
		key := normalizer.Preprocess(record.RawAddress, record.CountryCode)
		if err := as.cache.Delete(ctx, key); err != nil {
			return false, deleted, fmt.Errorf("lỗi xóa cache key: %w", err)
		}
		deleted++
	}
	as.logger.Info("Candidate cache keys deleted", zap.Int("deleted", deleted))
	return false, deleted, nil
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}

	if as.addresses != nil {
		stats.Uptime = time.Since(as.addresses.GetStartTime()).Round(time.Second).String()
		stats.Service = as.addresses.GetStats()
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Không thể lấy cache stats", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}

	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
