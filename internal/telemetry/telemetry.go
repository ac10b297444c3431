// Package telemetry sets up opt-in tracing and the Prometheus metrics endpoint.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/brizzai/cms-oauth-relay"

// Bundle owns the providers created at startup
type Bundle struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prometheus.Registry
}

// Setup creates the tracer provider when an OTLP endpoint is configured and
// the Prometheus-backed meter provider when metrics are enabled. With
// neither set the returned bundle is inert.
func Setup(ctx context.Context, cfg *config.Config) (*Bundle, error) {
	b := &Bundle{}
	if cfg.Telemetry.OTLPEndpoint == "" && !cfg.Metrics.Enabled {
		return b, nil
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(cfg.Telemetry.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	if cfg.Telemetry.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Telemetry.OTLPEndpoint),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
		}
		b.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(b.tracerProvider)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		logger.Info("Tracing enabled", zap.String("endpoint", cfg.Telemetry.OTLPEndpoint))
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
		if err != nil {
			if b.tracerProvider != nil {
				_ = b.tracerProvider.Shutdown(ctx)
			}
			return nil, fmt.Errorf("telemetry: start prometheus exporter: %w", err)
		}
		b.registry = registry
		b.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		logger.Info("Metrics enabled")
	}

	return b, nil
}

// Meter returns the relay meter, a no-op one when metrics are disabled
func (b *Bundle) Meter() metric.Meter {
	if b == nil || b.meterProvider == nil {
		return noop.NewMeterProvider().Meter(instrumentationName)
	}
	return b.meterProvider.Meter(instrumentationName)
}

// MetricsEnabled reports whether MetricsHandler serves real data
func (b *Bundle) MetricsEnabled() bool {
	return b != nil && b.registry != nil
}

// MetricsHandler serves the Prometheus exposition format
func (b *Bundle) MetricsHandler() http.Handler {
	if !b.MetricsEnabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the providers
func (b *Bundle) Shutdown(ctx context.Context) error {
	if b == nil {
		return nil
	}
	var errs []error
	if b.meterProvider != nil {
		if err := b.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metric shutdown: %w", err))
		}
	}
	if b.tracerProvider != nil {
		if err := b.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
