package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ExchangeMetrics counts callback outcomes and times the provider call.
// A nil *ExchangeMetrics records nothing.
type ExchangeMetrics struct {
	exchanges metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewExchangeMetrics registers the instruments on the bundle's meter
func NewExchangeMetrics(b *Bundle) (*ExchangeMetrics, error) {
	meter := b.Meter()

	exchanges, err := meter.Int64Counter("relay.token_exchanges",
		metric.WithDescription("Token exchanges by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exchange counter: %w", err)
	}

	latency, err := meter.Float64Histogram("relay.token_exchange.duration",
		metric.WithDescription("Duration of the outbound token exchange"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exchange histogram: %w", err)
	}

	return &ExchangeMetrics{exchanges: exchanges, latency: latency}, nil
}

// Record adds one exchange with its outcome label
func (m *ExchangeMetrics) Record(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.exchanges.Add(ctx, 1, attrs)
	m.latency.Record(ctx, d.Seconds(), attrs)
}
