package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/helpers/utils"
)

// MemoryCacheService cache in-process với LRU + TTL
type MemoryCacheService struct {
	cache *expirable.LRU[string, memoryEntry]
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	candidates models.CandidateMap
	storedAt   time.Time
}

// NewMemoryCacheService tạo mới MemoryCacheService. ttl <= 0 nghĩa là không hết hạn.
func NewMemoryCacheService(size int, ttl time.Duration) *MemoryCacheService {
	if size <= 0 {
		size = 1000
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCacheService{
		cache: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl:   ttl,
	}
}

// Get lấy candidates từ cache
func (mcs *MemoryCacheService) Get(_ context.Context, key string) (models.CandidateMap, bool, error) {
	entry, ok := mcs.cache.Get(utils.Fingerprint(key))
	if !ok {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	mcs.hits.Add(1)
	return entry.candidates.Clone(), true, nil
}

// Set lưu candidates vào cache
func (mcs *MemoryCacheService) Set(_ context.Context, key string, candidates models.CandidateMap) error {
	mcs.cache.Add(utils.Fingerprint(key), memoryEntry{candidates: candidates.Clone(), storedAt: time.Now()})
	return nil
}

// Delete xóa item khỏi cache
func (mcs *MemoryCacheService) Delete(_ context.Context, key string) error {
	mcs.cache.Remove(utils.Fingerprint(key))
	return nil
}

// Clear xóa toàn bộ cache
func (mcs *MemoryCacheService) Clear(_ context.Context) error {
	mcs.cache.Purge()
	mcs.hits.Store(0)
	mcs.misses.Store(0)
	return nil
}

// GetStats lấy thống kê cache
func (mcs *MemoryCacheService) GetStats(_ context.Context) (*CacheStats, error) {
	hits, misses := mcs.hits.Load(), mcs.misses.Load()
	return &CacheStats{
		Driver:     "memory",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(mcs.cache.Len()),
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (mcs *MemoryCacheService) Exists(_ context.Context, key string) (bool, error) {
	return mcs.cache.Contains(utils.Fingerprint(key)), nil
}

// GetTTL lấy TTL còn lại của key
func (mcs *MemoryCacheService) GetTTL(_ context.Context, key string) (time.Duration, error) {
	entry, ok := mcs.cache.Peek(utils.Fingerprint(key))
	if !ok || mcs.ttl == 0 {
		return 0, nil
	}
	remaining := mcs.ttl - time.Since(entry.storedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close không cần thiết cho in-memory cache
func (mcs *MemoryCacheService) Close() error {
	return nil
}
