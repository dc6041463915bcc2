package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/metrics"
)

// ErrParseFailure is returned when the external parser could not produce
// candidates: transport error, timeout or malformed output.
var ErrParseFailure = errors.New("address parse failure")

// Client is the external address tokenizer. Parse returns labelled
// components in the order the tokenizer produced them.
type Client interface {
	Parse(ctx context.Context, text string) ([]models.Component, error)
}

// Cache stores candidate maps by normalized text.
type Cache interface {
	Get(ctx context.Context, key string) (models.CandidateMap, bool, error)
	Set(ctx context.Context, key string, candidates models.CandidateMap) error
}

// AdapterConfig giới hạn tài nguyên cho parser calls
type AdapterConfig struct {
	MaxConcurrency int64
	Timeout        time.Duration
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithCache đặt candidate cache
func WithCache(c Cache) AdapterOption {
	return func(a *Adapter) { a.cache = c }
}

// WithLogger đặt logger
func WithLogger(l *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics đặt metrics recorder
func WithMetrics(m *metrics.Metrics) AdapterOption {
	return func(a *Adapter) { a.metrics = m }
}

// Adapter gọi external parser và nhóm kết quả theo label
type Adapter struct {
	client  Client
	cache   Cache
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAdapter tạo mới Adapter
func NewAdapter(client Client, cfg AdapterConfig, opts ...AdapterOption) *Adapter {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	a := &Adapter{
		client:  client,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrency),
		timeout: cfg.Timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Parse trả về CandidateMap cho normalized text. Label không nhận diện
// được bị bỏ qua; thứ tự giá trị trong mỗi label được giữ nguyên.
func (a *Adapter) Parse(ctx context.Context, text string) (models.CandidateMap, error) {
	if cached, ok := a.lookup(ctx, text); ok {
		return cached, nil
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	defer a.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	components, err := a.client.Parse(callCtx, text)
	if err != nil {
		a.metrics.ObserveParser("error", time.Since(start))
		a.logger.Warn("Parser call failed",
			zap.String("text", text),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	a.metrics.ObserveParser("ok", time.Since(start))

	candidates := models.NewCandidateMap(components)
	a.store(ctx, text, candidates)
	return candidates, nil
}

func (a *Adapter) lookup(ctx context.Context, text string) (models.CandidateMap, bool) {
	if a.cache == nil {
		return nil, false
	}
	cached, found, err := a.cache.Get(ctx, text)
	switch {
	case err != nil:
		a.metrics.IncrementCacheLookup("error")
		a.logger.Warn("Candidate cache get failed", zap.Error(err))
		return nil, false
	case !found:
		a.metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	a.metrics.IncrementCacheLookup("hit")
	return cached.Clone(), true
}

func (a *Adapter) store(ctx context.Context, text string, candidates models.CandidateMap) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, text, candidates.Clone()); err != nil {
		a.logger.Warn("Candidate cache set failed", zap.Error(err))
	}
}
