package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/helpers/logger"
)

// HybridCacheService cache kết hợp 2 tầng: fast (thường là Redis) + durable (thường là MongoDB)
type HybridCacheService struct {
	fast    ICacheService // L1 cache - nhanh
	durable ICacheService // L2 cache - persistent
	logger  *zap.Logger

	syncTimeout time.Duration
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(fast, durable ICacheService, log *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		fast:        fast,
		durable:     durable,
		logger:      logger.OrNop(log).Named("hybrid_cache"),
		syncTimeout: 5 * time.Second,
	}
}

// Get lấy candidates từ cache (L1 trước, L2 sau)
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (models.CandidateMap, bool, error) {
	// 1. Thử L1
	candidates, found, err := hcs.fast.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi L1 cache, fallback L2", zap.Error(err))
	} else if found {
		return candidates, true, nil
	}

	// 2. Thử L2
	candidates, found, err = hcs.durable.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	// 3. Có trong L2 thì đồng bộ lên L1
	synced := candidates.Clone()
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), hcs.syncTimeout)
		defer cancel()

		if err := hcs.fast.Set(bgCtx, key, synced); err != nil {
			hcs.logger.Warn("Lỗi sync L2->L1", zap.Error(err))
		}
	}()

	return candidates, true, nil
}

// both chạy fn song song trên 2 tầng và gom lỗi
func (hcs *HybridCacheService) both(fn func(c ICacheService) error) error {
	errCh := make(chan error, 2)

	go func() { errCh <- fn(hcs.fast) }()
	go func() { errCh <- fn(hcs.durable) }()

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Set lưu candidates vào cả 2 tầng
func (hcs *HybridCacheService) Set(ctx context.Context, key string, candidates models.CandidateMap) error {
	err := hcs.both(func(c ICacheService) error {
		return c.Set(ctx, key, candidates)
	})
	if err != nil {
		hcs.logger.Warn("Lỗi lưu vào hybrid cache", zap.Error(err))
	}
	return err
}

// Delete xóa key khỏi cả 2 tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error {
		return c.Delete(ctx, key)
	})
}

// Clear xóa toàn bộ cache ở cả 2 tầng
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// GetStats lấy thống kê cache (kết hợp từ cả 2)
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	fastStats, fastErr := hcs.fast.GetStats(ctx)
	durableStats, durableErr := hcs.durable.GetStats(ctx)

	switch {
	case fastErr != nil && durableErr != nil:
		return nil, errors.Join(fastErr, durableErr)
	case fastErr != nil:
		return durableStats, nil
	case durableErr != nil:
		return fastStats, nil
	}

	// Miss ở L1 rồi hit ở L2 vẫn là một hit, nên miss thực sự chỉ tính ở L2
	hits := fastStats.TotalHits + durableStats.TotalHits
	misses := durableStats.TotalMiss
	return &CacheStats{
		Driver:     "hybrid",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: durableStats.TotalItems,
	}, nil
}

// Exists kiểm tra key có tồn tại không (L1 trước, L2 sau)
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.fast.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi check L1 exists, fallback L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.durable.Exists(ctx, key)
}

// GetTTL lấy TTL của key (từ L1)
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.fast.GetTTL(ctx, key)
}

// Close đóng kết nối cả 2 cache
func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}
