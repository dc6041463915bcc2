// Package bootstrap dựng các thành phần dùng chung cho cmd/api và cmd/worker từ config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/controllers"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/classifier"
	"github.com/address-classifier/internal/external"
	"github.com/address-classifier/internal/metrics"
	"github.com/address-classifier/internal/parser"
	"github.com/address-classifier/internal/resolver"
	"github.com/address-classifier/internal/search"
)

// Components các thành phần đã khởi tạo; Close giải phóng kết nối
type Components struct {
	Cache     services.ICacheService // nil khi cache.driver=none
	Pipeline  *classifier.Pipeline
	Gazetteer *search.CityGazetteer // nil khi gazetteer tắt
	Checks    map[string]controllers.HealthCheck

	closers []func(ctx context.Context) error
}

// Close đóng cache và các kết nối theo thứ tự ngược lúc mở
func (c *Components) Close(ctx context.Context) error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build khởi tạo parser client, cache, pipeline và gazetteer theo cfg
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	comps := &Components{Checks: map[string]controllers.HealthCheck{}}

	client, err := NewParserClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	cache, err := comps.newCache(ctx, cfg, logger)
	if err != nil {
		_ = comps.Close(ctx)
		return nil, err
	}
	comps.Cache = cache

	adapterOpts := []parser.AdapterOption{parser.WithLogger(logger), parser.WithMetrics(m)}
	if cache != nil {
		adapterOpts = append(adapterOpts, parser.WithCache(cache))
	}
	adapter := parser.NewAdapter(client, parser.AdapterConfig{
		MaxConcurrency: cfg.Parser.MaxConcurrency,
		Timeout:        cfg.Parser.Timeout,
	}, adapterOpts...)

	pipelineOpts := []classifier.Option{
		classifier.WithLogger(logger),
		classifier.WithMetrics(m),
		classifier.WithWorkers(cfg.Batch.Workers),
	}
	if cfg.Trace.Enabled {
		pipelineOpts = append(pipelineOpts, classifier.WithTracer(resolver.NewZapTracer(logger)))
	}
	comps.Pipeline = classifier.NewPipeline(adapter, pipelineOpts...)

	if cfg.Gazetteer.Enabled {
		gazetteer, meili, err := search.NewCityGazetteer(search.SearchConfig{
			Host:      cfg.Meilisearch.URL,
			APIKey:    cfg.Meilisearch.APIKey,
			IndexName: cfg.Meilisearch.Index,
			MinScore:  cfg.Gazetteer.MinScore,
		}, logger)
		if err != nil {
			// Gazetteer chỉ là thông tin bổ sung, không chặn service khởi động
			logger.Warn("City gazetteer unavailable, verification disabled", zap.Error(err))
		} else {
			comps.Gazetteer = gazetteer
			comps.Checks["meilisearch"] = func(context.Context) error { return meili.Health() }
		}
	}

	return comps, nil
}

// NewParserClient chọn client theo parser.driver
func NewParserClient(cfg *config.Config, logger *zap.Logger) (parser.Client, error) {
	switch cfg.Parser.Driver {
	case config.ParserDriverLibpostal:
		client, err := external.NewLibpostalClient()
		if err != nil {
			return nil, fmt.Errorf("init libpostal: %w", err)
		}
		return client, nil
	default:
		return external.NewHTTPClient(external.HTTPClientConfig{
			URL:           cfg.Parser.URL,
			APIKey:        cfg.Parser.APIKey,
			APIKeyHeader:  cfg.Parser.APIKeyHeader,
			Timeout:       cfg.Parser.Timeout,
			RatePerSecond: cfg.Parser.RatePerSecond,
			Retries:       cfg.Parser.Retries,
		}, logger), nil
	}
}

func (c *Components) newCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.ICacheService, error) {
	switch cfg.Cache.Driver {
	case "none":
		return nil, nil
	case "memory":
		return services.NewMemoryCacheService(cfg.Cache.L1Size, cfg.Cache.TTL), nil
	case "redis":
		return c.newRedis(cfg, logger)
	case "mongo":
		return c.newMongo(ctx, cfg, logger)
	case "hybrid":
		redisCache, err := c.newRedis(cfg, logger)
		if err != nil {
			return nil, err
		}
		mongoCache, err := c.newMongo(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return services.NewHybridCacheService(redisCache, mongoCache, logger), nil
	}
	return nil, fmt.Errorf("cache.driver %q is not supported", cfg.Cache.Driver)
}

func (c *Components) newRedis(cfg *config.Config, logger *zap.Logger) (*services.RedisCacheService, error) {
	cache, err := services.NewRedisCacheService(cfg.Redis.URL, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func(context.Context) error { return cache.Close() })
	c.Checks["redis"] = cache.Ping
	return cache, nil
}

func (c *Components) newMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.MongoCacheService, error) {
	client, err := ConnectMongo(ctx, cfg.Mongo.URL, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client.Disconnect)
	c.Checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	cache, err := services.NewMongoCacheService(client.Database(cfg.Mongo.Database), cfg.Cache.L1Size, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, err
	}
	if err := cache.WarmUp(ctx, cfg.Cache.L1Size); err != nil {
		logger.Warn("Cache warm up failed", zap.Error(err))
	}
	return cache, nil
}

// ConnectMongo kết nối và ping MongoDB
func ConnectMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	logger.Info("Connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("Successfully connected to MongoDB")
	return client, nil
}
