package resolver

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceEvent phát một lần cho mỗi bước, và một lần cho mỗi trường bước đó điền
type TraceEvent struct {
	Step    string
	Field   Field
	Value   string
	Applied bool
}

// Tracer quan sát các bước của resolver. Implementation không được block.
type Tracer interface {
	Trace(ctx context.Context, ev TraceEvent)
}

// TracerFunc dùng một function làm Tracer
type TracerFunc func(ctx context.Context, ev TraceEvent)

func (f TracerFunc) Trace(ctx context.Context, ev TraceEvent) { f(ctx, ev) }

// NopTracer bỏ qua mọi event
type NopTracer struct{}

func (NopTracer) Trace(context.Context, TraceEvent) {}

// ZapTracer ghi event ở mức debug
type ZapTracer struct {
	logger *zap.Logger
}

// NewZapTracer tạo mới ZapTracer
func NewZapTracer(logger *zap.Logger) *ZapTracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTracer{logger: logger.Named("gapfill")}
}

func (zt *ZapTracer) Trace(_ context.Context, ev TraceEvent) {
	zt.logger.Debug("gap-fill step",
		zap.String("step", ev.Step),
		zap.String("field", string(ev.Field)),
		zap.String("value", ev.Value),
		zap.Bool("applied", ev.Applied))
}

// SpanTracer ghi event lên span trong ctx
type SpanTracer struct{}

func (SpanTracer) Trace(ctx context.Context, ev TraceEvent) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("gapfill."+ev.Step, trace.WithAttributes(
		attribute.String("field", string(ev.Field)),
		attribute.Bool("applied", ev.Applied),
	))
}

// MultiTracer gửi event tới nhiều tracer
func MultiTracer(tracers ...Tracer) Tracer {
	active := make([]Tracer, 0, len(tracers))
	for _, t := range tracers {
		if t != nil {
			active = append(active, t)
		}
	}
	switch len(active) {
	case 0:
		return NopTracer{}
	case 1:
		return active[0]
	}
	return TracerFunc(func(ctx context.Context, ev TraceEvent) {
		for _, t := range active {
			t.Trace(ctx, ev)
		}
	})
}
