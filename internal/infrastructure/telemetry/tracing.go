package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the service's own spans
const TracerName = "ib-portal"

// Span attribute keys
const (
	SpanAttrPageID    = "page_id"
	SpanAttrPortal    = "portal"
	SpanAttrSessionID = "session_id"
	SpanAttrRole      = "role"
	SpanAttrRowCount  = "row_count"
	SpanAttrCacheHit  = "cache_hit"
	SpanAttrFormat    = "export_format"
	SpanAttrRequestID = "request_id"
	SpanAttrUserID    = "user_id"

	SpanAttrHTTPStatus  = "http.status_code"
	SpanAttrErrorDetail = "error.detail"

	SpanAttrGatewayMethod = "gateway.method"
	SpanAttrGatewayPath   = "gateway.path"
	SpanAttrGatewayStatus = "gateway.status"
	SpanAttrGatewayRetry  = "gateway.attempt"
)

// SpanOption configures a span at start
type SpanOption func(*spanOptions)

type spanOptions struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span
func WithAttribute(key string, value any) SpanOption {
	return func(opts *spanOptions) {
		opts.attributes = append(opts.attributes, toAttribute(key, value))
	}
}

// WithSpanKind sets the span kind
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(opts *spanOptions) {
		opts.kind = kind
	}
}

// StartSpan starts an internal span unless WithSpanKind says otherwise.
// The caller ends it.
func StartSpan(ctx context.Context, spanName string, opts ...SpanOption) (context.Context, trace.Span) {
	options := &spanOptions{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(options)
	}

	startOpts := []trace.SpanStartOption{trace.WithSpanKind(options.kind)}
	if len(options.attributes) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(options.attributes...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, spanName, startOpts...)
}

// StartServiceSpan starts a span named {service}.{method}
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, method), opts...)
}

// StartPageSpan starts a "page.{op}" span tagged with the page and portal
//
//	ctx, span := telemetry.StartPageSpan(ctx, "view", "ib", "clients")
//	defer span.End()
func StartPageSpan(ctx context.Context, op, portal, pageID string, opts ...SpanOption) (context.Context, trace.Span) {
	opts = append([]SpanOption{
		WithAttribute(SpanAttrPageID, pageID),
		WithAttribute(SpanAttrPortal, portal),
	}, opts...)
	return StartServiceSpan(ctx, "page", op, opts...)
}

// StartGatewaySpan starts a client span for one gateway call, named
// gateway.{method} so paths with ids do not explode span cardinality.
func StartGatewaySpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return StartServiceSpan(ctx, "gateway", method,
		WithSpanKind(trace.SpanKindClient),
		WithAttribute(SpanAttrGatewayMethod, method),
		WithAttribute(SpanAttrGatewayPath, path),
	)
}

// SetAttribute adds a single attribute to the span
func SetAttribute(span trace.Span, key string, value any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttribute(key, value))
}

// RequestAttributes identify the caller of an HTTP request
type RequestAttributes struct {
	RequestID string
	UserID    string
	Role      string
	SessionID string
}

// SetRequestAttributes puts the non-empty caller attributes on span
func SetRequestAttributes(span trace.Span, r RequestAttributes) {
	if span == nil || !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 4)
	for _, kv := range []struct{ key, value string }{
		{SpanAttrRequestID, r.RequestID},
		{SpanAttrUserID, r.UserID},
		{SpanAttrRole, r.Role},
		{SpanAttrSessionID, r.SessionID},
	} {
		if kv.value != "" {
			attrs = append(attrs, attribute.String(kv.key, kv.value))
		}
	}
	span.SetAttributes(attrs...)
}

// MarkHTTPStatus sets an error status on span for 4xx and 5xx responses,
// with detail as the last handler error if any. Lower statuses are ignored.
func MarkHTTPStatus(span trace.Span, status int, detail string) {
	if span == nil || !span.IsRecording() || status < http.StatusBadRequest {
		return
	}
	var msg string
	switch {
	case status >= http.StatusInternalServerError:
		msg = "Internal Server Error"
	case status == http.StatusUnauthorized:
		msg = "Unauthorized"
	case status == http.StatusForbidden:
		msg = "Forbidden"
	case status == http.StatusNotFound:
		msg = "Not Found"
	default:
		msg = "Client Error"
	}
	span.SetStatus(codes.Error, msg)
	span.SetAttributes(attribute.Int(SpanAttrHTTPStatus, status))
	if detail != "" {
		span.SetAttributes(attribute.String(SpanAttrErrorDetail, detail))
	}
}

// RecordError records err on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span as successful
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SpanFromContext returns the current span, a no-op span when there is none
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// TraceIDs returns the trace and span ids of the context's span, or empty
// strings when it carries no valid span.
func TraceIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}

// toAttribute covers the value types the service records; anything else is
// formatted with %v.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case bool:
		return attribute.Bool(key, v)
	case time.Duration:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
