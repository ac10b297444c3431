package telemetry

import (
	"context"

	"github.com/brizzai/cms-oauth-relay/internal/config"
	"go.uber.org/fx"
)

// NewBundle sets up telemetry and ties its shutdown to the app lifecycle
func NewBundle(lc fx.Lifecycle, cfg *config.Config) (*Bundle, error) {
	b, err := Setup(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: b.Shutdown})
	return b, nil
}

// Module provides the telemetry bundle and exchange metrics
var Module = fx.Module("telemetry",
	fx.Provide(
		NewBundle,
		NewExchangeMetrics,
	),
)
