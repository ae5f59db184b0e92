package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every meetbook span.
const TracerName = "github.com/teemow/meetbook"

// Span attribute keys.
const (
	SpanAttrService    = "google.service"
	SpanAttrOperation  = "google.operation"
	SpanAttrMeetingID  = "meeting.id"
	SpanAttrLinkMethod = "meeting.link_method"
	SpanAttrAudience   = "notify.audience"
)

// SpanAttributeBuilder collects meeting attributes, skipping empty values.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{}
}

// WithMeetingID adds the meeting ID. Unsaved meetings (ID 0) are skipped.
func (b *SpanAttributeBuilder) WithMeetingID(id int64) *SpanAttributeBuilder {
	if id != 0 {
		b.attrs = append(b.attrs, attribute.Int64(SpanAttrMeetingID, id))
	}
	return b
}

func (b *SpanAttributeBuilder) WithLinkMethod(method string) *SpanAttributeBuilder {
	if method != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrLinkMethod, method))
	}
	return b
}

func (b *SpanAttributeBuilder) WithAudience(audience string) *SpanAttributeBuilder {
	if audience != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrAudience, audience))
	}
	return b
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span. Callers end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartGoogleAPISpan starts a client span named google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)

	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError marks the span failed. A nil error is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
