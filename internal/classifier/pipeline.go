// Package classifier chạy pipeline cho từng bản ghi: guard, chuẩn hóa,
// parse, gap-fill và kết luận địa chỉ đủ hay thiếu.
package classifier

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/metrics"
	"github.com/address-classifier/internal/normalizer"
	"github.com/address-classifier/internal/resolver"
)

const tracerName = "address-classifier"

// Parser sinh candidates cho text đã chuẩn hóa
type Parser interface {
	Parse(ctx context.Context, text string) (models.CandidateMap, error)
}

// Option cấu hình Pipeline
type Option func(*Pipeline)

// WithLogger set logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics set metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer thêm trace hook cho gap-fill, bên cạnh span và metrics
func WithTracer(t resolver.Tracer) Option {
	return func(p *Pipeline) { p.hook = t }
}

// WithWorkers giới hạn số bản ghi ClassifyBatch xử lý đồng thời
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline dùng đồng thời được
type Pipeline struct {
	parser   Parser
	resolver *resolver.Resolver
	tracer   trace.Tracer
	hook     resolver.Tracer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	workers  int
}

// NewPipeline tạo mới Pipeline
func NewPipeline(parser Parser, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:  parser,
		tracer:  otel.Tracer(tracerName),
		logger:  zap.NewNop(),
		workers: 8,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.resolver = resolver.New(resolver.WithTracer(resolver.MultiTracer(
		resolver.SpanTracer{},
		resolver.TracerFunc(p.countRuleHit),
		p.hook,
	)))
	return p
}

func (p *Pipeline) countRuleHit(_ context.Context, ev resolver.TraceEvent) {
	if ev.Applied && ev.Step != resolver.StepBaseline {
		p.metrics.IncrementRuleHit(ev.Step, string(ev.Field))
	}
}

// Classify không bao giờ lỗi: bản ghi parser không xử lý được trả về
// incomplete với outcome parse_failure.
func (p *Pipeline) Classify(ctx context.Context, record models.AddressRecord) models.ClassificationResult {
	ctx, span := p.tracer.Start(ctx, "classifier.Classify", trace.WithAttributes(
		attribute.String("address.country", record.CountryCode),
	))
	defer span.End()

	result := p.classify(ctx, record)

	span.SetAttributes(
		attribute.String("address.outcome", string(result.Outcome)),
		attribute.Bool("address.complete", result.Resolved.Complete),
	)
	if result.Outcome == models.OutcomeParseFailure {
		span.SetStatus(codes.Error, "parse failure")
	}
	p.metrics.IncrementOutcome(string(result.Outcome), result.Resolved.Complete)
	return result
}

func (p *Pipeline) classify(ctx context.Context, record models.AddressRecord) models.ClassificationResult {
	if !normalizer.HasEnoughTokens(record.RawAddress) {
		return models.Incomplete(record, models.OutcomeTooShort)
	}

	text := normalizer.Preprocess(record.RawAddress, record.CountryCode)
	candidates, err := p.parser.Parse(ctx, text)
	if err != nil {
		p.logger.Warn("Address parse failed, record marked incomplete",
			zap.String("normalized", text),
			zap.String("country", record.CountryCode),
			zap.Error(err))
		result := models.Incomplete(record, models.OutcomeParseFailure)
		result.Normalized = text
		return result
	}

	resolved := p.resolver.Resolve(ctx, text, record.CountryCode, candidates)
	resolved.Complete = IsComplete(resolved, record.CountryCode)

	return models.ClassificationResult{
		Record:     record,
		Normalized: text,
		Candidates: candidates,
		Resolved:   resolved,
		Outcome:    models.OutcomeResolved,
	}
}

// ClassifyBatch phân loại song song, trả kết quả đúng thứ tự input. Chỉ lỗi
// khi ctx bị cancel trước khi xử lý xong mọi bản ghi.
func (p *Pipeline) ClassifyBatch(ctx context.Context, records []models.AddressRecord) ([]models.ClassificationResult, error) {
	start := time.Now()
	results := make([]models.ClassificationResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, record := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.Classify(gctx, record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.metrics.ObserveBatchSize(len(records))
	p.logger.Info("Batch classified",
		zap.Int("records", len(records)),
		zap.Int("complete", countComplete(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// IsCancelled kiểm tra err có phải do batch bị cancel không
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func countComplete(results []models.ClassificationResult) int {
	n := 0
	for _, r := range results {
		if r.Resolved.Complete {
			n++
		}
	}
	return n
}
