package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/helpers/logger"
	"github.com/address-classifier/helpers/utils"
)

const candidateCacheCollection = "candidate_cache"

// MongoCacheService persistent cache service sử dụng MongoDB + LRU in-memory
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, models.CandidateMap] // LRU in-memory cache, key = fingerprint
	logger     *zap.Logger
	ttl        time.Duration

	// Metrics
	l1Hits    atomic.Int64
	mongoHits atomic.Int64
	totalMiss atomic.Int64
}

// NewMongoCacheService tạo mới MongoCacheService
func NewMongoCacheService(db *mongo.Database, l1Size int, ttl time.Duration, log *zap.Logger) (*MongoCacheService, error) {
	if l1Size <= 0 {
		l1Size = 1000
	}
	l1Cache, err := lru.New[string, models.CandidateMap](l1Size)
	if err != nil {
		return nil, fmt.Errorf("không thể tạo LRU cache: %w", err)
	}
	log = logger.OrNop(log).Named("mongo_cache")

	collection := db.Collection(candidateCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn("Không thể tạo indexes cho candidate_cache", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     log,
		ttl:        ttl,
	}, nil
}

// Get lấy candidates từ cache (L1 → MongoDB)
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (models.CandidateMap, bool, error) {
	fingerprint := utils.Fingerprint(key)

	// 1. Thử L1 cache trước
	if candidates, found := mcs.l1Cache.Get(fingerprint); found {
		mcs.l1Hits.Add(1)
		return candidates.Clone(), true, nil
	}

	// 2. Thử MongoDB persistent cache
	var entry models.CandidateCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lỗi query MongoDB cache: %w", err)
	}

	if entry.IsExpired(mcs.ttl) {
		mcs.totalMiss.Add(1)
		go mcs.deleteExpired(context.WithoutCancel(ctx), entry.ID)
		return nil, false, nil
	}

	mcs.mongoHits.Add(1)
	go mcs.updateAccessStats(context.WithoutCancel(ctx), entry.ID)

	// Lưu vào L1 cache cho lần sau
	mcs.l1Cache.Add(fingerprint, entry.Candidates.Clone())
	return entry.Candidates, true, nil
}

// Set lưu candidates vào cache (L1 + MongoDB)
func (mcs *MongoCacheService) Set(ctx context.Context, key string, candidates models.CandidateMap) error {
	fingerprint := utils.Fingerprint(key)
	mcs.l1Cache.Add(fingerprint, candidates.Clone())

	entry := models.NewCandidateCache(fingerprint, key, candidates)

	// Upsert
	opts := options.Replace().SetUpsert(true)
	_, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts)
	if err != nil {
		mcs.logger.Error("Lỗi lưu vào MongoDB cache",
			zap.Error(err),
			zap.String("fingerprint", fingerprint))
		return fmt.Errorf("lỗi lưu vào MongoDB cache: %w", err)
	}
	return nil
}

// Delete xóa candidates khỏi cache
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	fingerprint := utils.Fingerprint(key)
	mcs.l1Cache.Remove(fingerprint)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": fingerprint}); err != nil {
		return fmt.Errorf("lỗi xóa khỏi MongoDB cache: %w", err)
	}
	return nil
}

// Clear xóa tất cả cache
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("lỗi clear MongoDB cache: %w", err)
	}

	mcs.l1Hits.Store(0)
	mcs.mongoHits.Store(0)
	mcs.totalMiss.Store(0)

	mcs.logger.Info("Đã clear MongoDB cache", zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

// GetStats lấy thống kê cache
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("lỗi đếm documents trong MongoDB cache: %w", err)
	}

	hits := mcs.l1Hits.Load() + mcs.mongoHits.Load()
	misses := mcs.totalMiss.Load()

	mcs.logger.Debug("Cache stats",
		zap.Int64("l1_hits", mcs.l1Hits.Load()),
		zap.Int64("mongo_hits", mcs.mongoHits.Load()),
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("mongo_count", mongoCount))

	return &CacheStats{
		Driver:     "mongo",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: mongoCount,
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	fingerprint := utils.Fingerprint(key)
	if mcs.l1Cache.Contains(fingerprint) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": fingerprint})
	if err != nil {
		return false, fmt.Errorf("lỗi check exists trong MongoDB: %w", err)
	}
	return count > 0, nil
}

// GetTTL lấy TTL còn lại của key, 0 nếu không cấu hình TTL hoặc key không tồn tại
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	if mcs.ttl <= 0 {
		return 0, nil
	}

	var entry models.CandidateCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": utils.Fingerprint(key)}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := mcs.ttl - time.Since(entry.CreatedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close MongoDB connection được quản lý bởi caller
func (mcs *MongoCacheService) Close() error {
	return nil
}

// updateAccessStats cập nhật thống kê truy cập (async)
func (mcs *MongoCacheService) updateAccessStats(ctx context.Context, id primitive.ObjectID) {
	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Lỗi update access stats", zap.Error(err))
	}
}

func (mcs *MongoCacheService) deleteExpired(ctx context.Context, id primitive.ObjectID) {
	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		mcs.logger.Warn("Lỗi xóa cache hết hạn", zap.Error(err))
	}
}

// WarmUp làm nóng L1 từ các records được truy cập nhiều nhất
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("lỗi warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.CandidateCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Lỗi decode cache entry trong warm up", zap.Error(err))
			continue
		}
		if entry.IsExpired(mcs.ttl) {
			continue
		}
		mcs.l1Cache.Add(entry.Fingerprint, entry.Candidates)
		count++
	}

	mcs.logger.Info("Cache warm up hoàn thành",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))

	return cursor.Err()
}
