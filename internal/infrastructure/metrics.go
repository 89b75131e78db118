package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "riskpulse"
	ServiceVersion = "v1.0.0"
	MeterName      = "riskpulse"
)

// MetricsProviders holds the OpenTelemetry metrics pipeline and the
// Prometheus exposition handler.
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// InitializeMetrics wires the OTel meter provider to a Prometheus exporter.
func InitializeMetrics(logger *slog.Logger) (*MetricsProviders, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	logger.Info("metrics initialized", slog.String("exporter", "prometheus"))

	return &MetricsProviders{
		MeterProvider:  provider,
		Meter:          provider.Meter(MeterName),
		PrometheusHTTP: promhttp.Handler(),
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// RiskMetrics bundles the instruments recorded by the status pipeline.
type RiskMetrics struct {
	AssessmentsComputed metric.Int64Counter
	AssessmentDuration  metric.Float64Histogram
	CacheHits           metric.Int64Counter
	CacheMisses         metric.Int64Counter
	StaleServed         metric.Int64Counter
	FeedbackEvents      metric.Int64Counter
	BreakerTransitions  metric.Int64Counter
}

// NewRiskMetrics creates the instrument set on the given meter.
func NewRiskMetrics(meter metric.Meter) (*RiskMetrics, error) {
	m := &RiskMetrics{}
	var err error

	if m.AssessmentsComputed, err = meter.Int64Counter("risk_assessments_total",
		metric.WithDescription("Completed risk assessment cycles"),
	); err != nil {
		return nil, err
	}
	if m.AssessmentDuration, err = meter.Float64Histogram("risk_assessment_duration_seconds",
		metric.WithDescription("Duration of one assessment cycle"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.CacheHits, err = meter.Int64Counter("risk_cache_hits_total",
		metric.WithDescription("Assessment cache hits"),
	); err != nil {
		return nil, err
	}
	if m.CacheMisses, err = meter.Int64Counter("risk_cache_misses_total",
		metric.WithDescription("Assessment cache misses"),
	); err != nil {
		return nil, err
	}
	if m.StaleServed, err = meter.Int64Counter("risk_stale_served_total",
		metric.WithDescription("Requests answered with a stale or synthesized assessment"),
	); err != nil {
		return nil, err
	}
	if m.FeedbackEvents, err = meter.Int64Counter("risk_feedback_total",
		metric.WithDescription("Feedback submissions applied to a prior"),
	); err != nil {
		return nil, err
	}
	if m.BreakerTransitions, err = meter.Int64Counter("risk_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAssessment records one computed assessment cycle.
func (m *RiskMetrics) RecordAssessment(ctx context.Context, scope, state string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("state", state),
	)
	m.AssessmentsComputed.Add(ctx, 1, attrs)
	m.AssessmentDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCache records a cache lookup outcome.
func (m *RiskMetrics) RecordCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
	} else {
		m.CacheMisses.Add(ctx, 1)
	}
}

// RecordStale records a degraded answer.
func (m *RiskMetrics) RecordStale(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.StaleServed.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordFeedback records an applied feedback event.
func (m *RiskMetrics) RecordFeedback(ctx context.Context, scope string, rating int) {
	if m == nil {
		return
	}
	m.FeedbackEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.Int("rating", rating),
	))
}

// RecordBreakerTransition records a circuit state change.
func (m *RiskMetrics) RecordBreakerTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
