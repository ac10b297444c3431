package auth

import (
	"net/http"

	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/auth/handlers"
	"github.com/brizzai/cms-oauth-relay/internal/auth/middleware"
	"github.com/brizzai/cms-oauth-relay/internal/auth/providers"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/telemetry"
	"go.uber.org/fx"
)

// Service represents the OAuth relay
type Service struct {
	cors    *middleware.CORS
	handler *handlers.Handler
}

type ServiceParams struct {
	fx.In

	OAuthConfig *config.OAuthConfig
	CORSConfig  *config.CORSConfig
	Provider    providers.Provider
	Metrics     *telemetry.ExchangeMetrics `optional:"true"`
}

// NewService creates a new OAuth relay service
func NewService(params ServiceParams) *Service {
	return &Service{
		cors:    middleware.NewCORS(params.CORSConfig),
		handler: handlers.NewHandler(params.OAuthConfig, params.Provider, params.Metrics),
	}
}

// RegisterRoutes registers the landing, authorize and callback routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	// "/{$}" keeps the landing page from swallowing unknown paths
	mux.Handle(constants.LandingPath+"{$}", middleware.Route(s.cors, middleware.MethodTable{
		http.MethodGet: s.handler.HandleLanding,
	}))
	mux.Handle(constants.AuthPath, middleware.Route(s.cors, middleware.MethodTable{
		http.MethodGet: s.handler.HandleAuthorize,
	}))
	mux.Handle(constants.CallbackPath, middleware.Route(s.cors, middleware.MethodTable{
		http.MethodGet: s.handler.HandleAuthCallback,
	}))
}

// Module provides the relay service and its GitHub provider
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			providers.NewGitHubProvider,
			fx.As(new(providers.Provider)),
		),
		NewService,
	),
)
