// Package telemetry exports one client span per captured exchange through
// OpenTelemetry. Without an endpoint every call is a no-op.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/unkn0wn-root/netlens/internal/telemetry"
	defaultDialTimeout = 5 * time.Second

	attrEnabled  = attribute.Key("netlens.capture.enabled")
	attrRecordID = attribute.Key("netlens.capture.id")
	attrSize     = attribute.Key("netlens.capture.response_size")
	attrDuration = attribute.Key("netlens.capture.duration_ms")
	attrHost     = attribute.Key("http.host")
)

// Instrumenter traces the exchanges seen by the capture recorder.
type Instrumenter interface {
	// Start opens a span for req. The returned context carries an
	// httptrace hook, so it must be the one the request is sent with.
	Start(ctx context.Context, req *http.Request) (context.Context, RequestSpan)
	Shutdown(ctx context.Context) error
}

type RequestSpan interface {
	End(result Result)
}

// Result is what the recorder knows once an exchange has finished.
type Result struct {
	Err          error
	StatusCode   int
	RecordID     string
	ResponseSize int
	Duration     time.Duration
}

type options struct {
	exporter   sdktrace.SpanExporter
	processors []sdktrace.SpanProcessor
}

type Option func(*options)

// WithSpanProcessor registers an extra processor, e.g. a tracetest recorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		if p != nil {
			o.processors = append(o.processors, p)
		}
	}
}

// WithExporter replaces the OTLP exporter built from Config.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		if exp != nil {
			o.exporter = exp
		}
	}
}

type tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	once     sync.Once
	err      error
}

// New builds an Instrumenter for cfg. It returns Noop when neither an
// endpoint nor an explicit exporter or processor is configured.
func New(cfg Config, opts ...Option) (Instrumenter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !cfg.Enabled() && o.exporter == nil && len(o.processors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(serviceAttributes(cfg)...),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	if o.exporter == nil && cfg.Enabled() {
		if o.exporter, err = otlpExporter(cfg); err != nil {
			return nil, fmt.Errorf("telemetry exporter: %w", err)
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if o.exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(o.exporter))
	}
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &tracer{tracer: tp.Tracer(tracerName), provider: tp}, nil
}

func (t *tracer) Start(ctx context.Context, req *http.Request) (context.Context, RequestSpan) {
	if req == nil {
		return ctx, noopSpan{}
	}
	ctx, span := t.tracer.Start(
		ctx,
		spanName(req),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(requestAttributes(req)...),
	)
	ph := &phases{}
	return ph.attach(ctx), &requestSpan{span: span, phases: ph}
}

// Shutdown flushes pending spans. Later calls return the first result.
func (t *tracer) Shutdown(ctx context.Context) error {
	t.once.Do(func() {
		t.err = t.provider.Shutdown(ctx)
	})
	return t.err
}

type requestSpan struct {
	span   trace.Span
	phases *phases
}

func (rs *requestSpan) End(r Result) {
	s := rs.span
	if r.StatusCode > 0 {
		s.SetAttributes(semconv.HTTPStatusCodeKey.Int(r.StatusCode))
	}
	if id := strings.TrimSpace(r.RecordID); id != "" {
		s.SetAttributes(attrRecordID.String(id))
	}
	if r.ResponseSize > 0 {
		s.SetAttributes(attrSize.Int(r.ResponseSize))
	}
	if r.Duration > 0 {
		s.SetAttributes(attrDuration.Int64(r.Duration.Milliseconds()))
	}
	rs.phases.record(s)

	switch {
	case r.Err != nil:
		s.RecordError(r.Err)
		s.SetStatus(codes.Error, r.Err.Error())
	case r.StatusCode >= 400:
		s.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", r.StatusCode))
	default:
		s.SetStatus(codes.Ok, "OK")
	}
	s.End()
}

func Noop() Instrumenter { return noopInstrumenter{} }

type noopInstrumenter struct{}

func (noopInstrumenter) Start(ctx context.Context, _ *http.Request) (context.Context, RequestSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

type noopSpan struct{}

func (noopSpan) End(Result) {}

func otlpExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telemetry endpoint is required")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(clientOpts...))
}

func serviceAttributes(cfg Config) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersion(v))
	}
	return attrs
}

func requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attrEnabled.Bool(true)}
	if req.Method != "" {
		attrs = append(attrs, semconv.HTTPMethodKey.String(req.Method))
	}
	u := req.URL
	if u == nil {
		return attrs
	}
	if u.Scheme != "" {
		attrs = append(attrs, semconv.HTTPSchemeKey.String(u.Scheme))
	}
	if u.Host != "" {
		attrs = append(attrs, attrHost.String(u.Host))
	}
	return append(attrs,
		semconv.HTTPTargetKey.String(u.RequestURI()),
		semconv.HTTPURLKey.String(u.String()),
	)
}

// spanName is "METHOD host", falling back to the method alone or
// "http.request".
func spanName(req *http.Request) string {
	switch {
	case req.Method == "":
		return "http.request"
	case req.URL != nil && req.URL.Host != "":
		return req.Method + " " + req.URL.Host
	default:
		return req.Method
	}
}
