package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrAudience  = "audience"
	attrOutcome   = "outcome"
	attrSuccess   = "success"
)

// Bulk action outcome label values.
const (
	OutcomeProcessed = "processed"
	OutcomeErrored   = "errored"
	OutcomeSkipped   = "skipped"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics (or a nil *Metrics) records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthTokenRefreshTotal metric.Int64Counter

	// Scheduling metrics
	meetingLinksTotal  metric.Int64Counter
	notificationsTotal metric.Int64Counter
	bulkMeetingsTotal  metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// OAuth Metrics
	m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	// Scheduling Metrics
	m.meetingLinksTotal, err = meter.Int64Counter(
		"meeting_links_total",
		metric.WithDescription("Total number of meeting links resolved, by method"),
		metric.WithUnit("{link}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting_links_total counter: %w", err)
	}

	m.notificationsTotal, err = meter.Int64Counter(
		"notifications_total",
		metric.WithDescription("Total number of notification emails, by audience and status"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications_total counter: %w", err)
	}

	m.bulkMeetingsTotal, err = meter.Int64Counter(
		"bulk_action_meetings_total",
		metric.WithDescription("Meetings handled by the bulk link action, by outcome"),
		metric.WithUnit("{meeting}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk_action_meetings_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (calendar, gmail)
//   - operation: Operation type (insert, send)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthTokenRefresh records an OAuth token refresh attempt with result.
// Result should be one of: "success", "failure", "expired"
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.oauthTokenRefreshTotal == nil {
		return // Instrumentation not initialized
	}

	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordMeetingLink records how a meeting link was resolved.
func (m *Metrics) RecordMeetingLink(ctx context.Context, method string, success bool) {
	if m == nil || m.meetingLinksTotal == nil {
		return
	}

	m.meetingLinksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.Bool(attrSuccess, success),
	))
}

// RecordNotification records one notification email attempt.
func (m *Metrics) RecordNotification(ctx context.Context, audience, status string) {
	if m == nil || m.notificationsTotal == nil {
		return
	}

	m.notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAudience, audience),
		attribute.String(attrStatus, status),
	))
}

// RecordBulkAction records the tallies of one bulk link generation run.
func (m *Metrics) RecordBulkAction(ctx context.Context, processed, errored, skipped int) {
	if m == nil || m.bulkMeetingsTotal == nil {
		return
	}

	for outcome, n := range map[string]int{
		OutcomeProcessed: processed,
		OutcomeErrored:   errored,
		OutcomeSkipped:   skipped,
	} {
		if n == 0 {
			continue
		}
		m.bulkMeetingsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	}
}
