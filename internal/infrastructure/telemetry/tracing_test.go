package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ibportal/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a global provider backed by an in-memory recorder
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "gateway.request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrGatewayPath, "/ib/clients"),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "gateway.request", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, "/ib/clients", attrMap(spans[0].Attributes())[telemetry.SpanAttrGatewayPath].AsString())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "page", "view")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "page.view", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
}

func TestStartPageSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartPageSpan(context.Background(), "export", "admin", "ibs",
		telemetry.WithAttribute(telemetry.SpanAttrFormat, "pdf"))
	span.End()

	got := sr.Ended()[0]
	attrs := attrMap(got.Attributes())
	assert.Equal(t, "page.export", got.Name())
	assert.Equal(t, "ibs", attrs[telemetry.SpanAttrPageID].AsString())
	assert.Equal(t, "admin", attrs[telemetry.SpanAttrPortal].AsString())
	assert.Equal(t, "pdf", attrs[telemetry.SpanAttrFormat].AsString())
}

func TestStartGatewaySpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartGatewaySpan(context.Background(), "get", "/ib/clients")
	span.End()

	got := sr.Ended()[0]
	attrs := attrMap(got.Attributes())
	assert.Equal(t, "gateway.get", got.Name())
	assert.Equal(t, trace.SpanKindClient, got.SpanKind())
	assert.Equal(t, "get", attrs[telemetry.SpanAttrGatewayMethod].AsString())
	assert.Equal(t, "/ib/clients", attrs[telemetry.SpanAttrGatewayPath].AsString())
}

func TestSetAttribute(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "attrs")
	telemetry.SetAttribute(span, telemetry.SpanAttrPageID, "clients")
	telemetry.SetAttribute(span, telemetry.SpanAttrRowCount, 42)
	telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, true)
	telemetry.SetAttribute(span, "elapsed", 1500*time.Millisecond)
	telemetry.SetAttribute(span, "ratio", 0.5)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "clients", attrs["page_id"].AsString())
	assert.Equal(t, int64(42), attrs["row_count"].AsInt64())
	assert.True(t, attrs["cache_hit"].AsBool())
	assert.Equal(t, "1.5s", attrs["elapsed"].AsString())
	assert.Equal(t, "0.5", attrs["ratio"].AsString())
}

func TestSetRequestAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "request")
	telemetry.SetRequestAttributes(span, telemetry.RequestAttributes{
		RequestID: "req-1",
		Role:      "ib",
		SessionID: "s-1",
	})
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "req-1", attrs[telemetry.SpanAttrRequestID].AsString())
	assert.Equal(t, "ib", attrs[telemetry.SpanAttrRole].AsString())
	assert.Equal(t, "s-1", attrs[telemetry.SpanAttrSessionID].AsString())
	assert.NotContains(t, attrs, telemetry.SpanAttrUserID)
}

func TestMarkHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		code   codes.Code
		desc   string
	}{
		{200, codes.Unset, ""},
		{302, codes.Unset, ""},
		{401, codes.Error, "Unauthorized"},
		{403, codes.Error, "Forbidden"},
		{404, codes.Error, "Not Found"},
		{422, codes.Error, "Client Error"},
		{502, codes.Error, "Internal Server Error"},
	}
	for _, tt := range tests {
		sr := setupTestTracer(t)
		_, span := telemetry.StartSpan(context.Background(), "http")
		telemetry.MarkHTTPStatus(span, tt.status, "boom")
		span.End()

		got := sr.Ended()[0]
		assert.Equal(t, tt.code, got.Status().Code, "status %d", tt.status)
		assert.Equal(t, tt.desc, got.Status().Description, "status %d", tt.status)
		attrs := attrMap(got.Attributes())
		if tt.code == codes.Error {
			assert.Equal(t, int64(tt.status), attrs[telemetry.SpanAttrHTTPStatus].AsInt64())
			assert.Equal(t, "boom", attrs[telemetry.SpanAttrErrorDetail].AsString())
		} else {
			assert.Empty(t, attrs)
		}
	}
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "fails")
	telemetry.RecordError(span, errors.New("gateway down"))
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "gateway down", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ok")
	telemetry.RecordError(span, nil)
	telemetry.SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, sr.Ended()[0].Status().Code)
}

func TestTraceIDs(t *testing.T) {
	setupTestTracer(t)

	traceID, spanID := telemetry.TraceIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)

	ctx, span := telemetry.StartSpan(context.Background(), "ids")
	defer span.End()

	traceID, spanID = telemetry.TraceIDs(ctx)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
	assert.Equal(t, span, telemetry.SpanFromContext(ctx))
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.SetRequestAttributes(nil, telemetry.RequestAttributes{RequestID: "r"})
		telemetry.MarkHTTPStatus(nil, 500, "")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
	})
}
