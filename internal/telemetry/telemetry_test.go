package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingInstrumenter(t *testing.T) (Instrumenter, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(
		Config{ServiceName: "netlens-test", Version: "test"},
		WithSpanProcessor(recorder),
	)
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})
	return inst, recorder
}

func TestInstrumenterRecordsCapture(t *testing.T) {
	inst, recorder := newRecordingInstrumenter(t)

	req, err := http.NewRequestWithContext(
		context.Background(),
		http.MethodGet,
		"https://example.com/api/health",
		nil,
	)
	if err != nil {
		t.Fatalf("build http request: %v", err)
	}

	ctx, span := inst.Start(context.Background(), req)
	if ctx == nil || span == nil {
		t.Fatalf("expected span to be created")
	}
	span.End(Result{
		StatusCode:   200,
		RecordID:     "rec-1",
		ResponseSize: 42,
		Duration:     180 * time.Millisecond,
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	ro := spans[0]
	if got := ro.Name(); got != "GET example.com" {
		t.Fatalf("unexpected span name %q", got)
	}
	assertAttribute(t, ro, "netlens.capture.enabled", true)
	assertAttribute(t, ro, "http.method", "GET")
	assertAttribute(t, ro, "netlens.capture.id", "rec-1")
	assertAttribute(t, ro, "netlens.capture.duration_ms", int64(180))
	if ro.Status().Code != codes.Ok {
		t.Fatalf("expected span status OK, got %v", ro.Status().Code)
	}
}

func TestInstrumenterMarksFailures(t *testing.T) {
	inst, recorder := newRecordingInstrumenter(t)

	req, _ := http.NewRequest(http.MethodPost, "https://example.com/login", nil)
	_, span := inst.Start(context.Background(), req)
	span.End(Result{StatusCode: 503})

	req2, _ := http.NewRequest(http.MethodGet, "https://example.com/down", nil)
	_, span2 := inst.Start(context.Background(), req2)
	span2.End(Result{Err: errors.New("connection refused")})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, ro := range spans {
		if ro.Status().Code != codes.Error {
			t.Fatalf("expected error status for %s, got %v", ro.Name(), ro.Status().Code)
		}
	}
	if len(spans[1].Events()) == 0 {
		t.Fatalf("expected recorded error event")
	}
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := inst.(noopInstrumenter); !ok {
		t.Fatalf("expected noop instrumenter, got %T", inst)
	}
	ctx, span := inst.Start(context.Background(), nil)
	if ctx == nil || span == nil {
		t.Fatalf("expected usable noop span")
	}
	span.End(Result{})
}

func assertAttribute(t *testing.T, span sdktrace.ReadOnlySpan, key string, want interface{}) {
	t.Helper()
	attrs := span.Attributes()
	for _, attr := range attrs {
		if string(attr.Key) != key {
			continue
		}
		switch v := want.(type) {
		case string:
			if attr.Value.AsString() == v {
				return
			}
		case bool:
			if attr.Value.AsBool() == v {
				return
			}
		case int64:
			if attr.Value.AsInt64() == v {
				return
			}
		}
		t.Fatalf("attribute %s mismatch: got %v, want %v", key, attr.Value, want)
	}
	t.Fatalf("attribute %s not found", key)
}
