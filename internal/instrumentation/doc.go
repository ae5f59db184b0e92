// Package instrumentation wires OpenTelemetry metrics and traces for meetbook.
//
// Counters and histograms recorded through Metrics:
//
//   - http_requests_total, http_request_duration_seconds
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - oauth_token_refresh_total
//   - meeting_links_total by method and success
//   - notifications_total by audience and status
//   - bulk_action_meetings_total by outcome
//
// Spans cover link resolution (scheduling.link), notification sends
// (notify.<audience>) and Google API calls (google.<service>.<operation>).
//
// The Prometheus exporter registers with a registry private to each
// Provider and is served by Provider.PrometheusHandler. OTLP and stdout
// exporters push every DefaultMetricInterval.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
package instrumentation
