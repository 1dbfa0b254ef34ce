package context

import (
	"context"
)

// TraceContext identifies one request across logs, spans and responses.
// SpanID is empty when no tracer provider is installed.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

// LogFields returns the identifiers as logger key-value pairs.
func (t *TraceContext) LogFields() []any {
	fields := []any{"trace_id", t.TraceID, "request_id", t.RequestID}
	if t.SpanID != "" {
		fields = append(fields, "span_id", t.SpanID)
	}
	return fields
}

type traceContextKey struct{}

// WithTrace attaches t to ctx.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns the request's TraceContext, or nil outside a request.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return t
}
