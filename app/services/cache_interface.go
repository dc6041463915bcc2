package services

import (
	"context"
	"time"

	"github.com/address-classifier/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	Driver     string  `json:"driver"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService candidate cache, key là normalized text đã gửi cho parser
type ICacheService interface {
	// Get lấy candidates từ cache
	Get(ctx context.Context, key string) (models.CandidateMap, bool, error)

	// Set lưu candidates vào cache
	Set(ctx context.Context, key string, candidates models.CandidateMap) error

	// Delete xóa một key khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
