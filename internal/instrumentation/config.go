package instrumentation

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Label values shared by the recorders.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	ServiceCalendar = "calendar"
	ServiceGmail    = "gmail"
)

// DefaultMetricInterval is how often push exporters collect.
const DefaultMetricInterval = 10 * time.Second

// DefaultServiceName identifies meetbook in exported telemetry.
const DefaultServiceName = "meetbook"

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects exporters and identifies the service.
// A zero Config is disabled.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	Enabled         bool
	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of root spans kept, 0 to 1.
	TraceSamplingRate float64
}

// DefaultConfig exports Prometheus metrics and no traces.
func DefaultConfig() Config {
	return Config{
		ServiceName:       DefaultServiceName,
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
	}
}

// Validate reports every unusable setting.
func (c Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: %v", c.MetricsExporter, metricsExporters))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: %v", c.TracingExporter, tracingExporters))
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when an exporter is otlp"))
	}

	return errors.Join(errs...)
}

// withDefaults fills blank exporter and service fields.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.MetricsExporter == "" {
		c.MetricsExporter = ExporterPrometheus
	}
	if c.TracingExporter == "" {
		c.TracingExporter = ExporterNone
	}
	return c
}
