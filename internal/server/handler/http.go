// Package handler assembles the HTTP handler tree for the relay server.
package handler

import (
	"net/http"

	"github.com/brizzai/cms-oauth-relay/internal/auth"
	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/auth/middleware"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/brizzai/cms-oauth-relay/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth      *auth.Service
	telemetry *telemetry.Bundle
}

// NewHandler creates a new HTTP handler.
func NewHandler(auth *auth.Service, telemetry *telemetry.Bundle) *Handler {
	return &Handler{
		auth:      auth,
		telemetry: telemetry,
	}
}

// CreateHTTPHandler creates the relay routes wrapped in request logging and tracing.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered relay routes",
		zap.Strings("routes", []string{constants.LandingPath, constants.AuthPath, constants.CallbackPath}),
	)

	if h.telemetry.MetricsEnabled() {
		mux.Handle(constants.MetricsPath, h.telemetry.MetricsHandler())
		logger.Info("Registered metrics route")
	}

	return otelhttp.NewHandler(middleware.LogRequests(mux), "cms-oauth-relay",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
