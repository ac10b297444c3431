package handlers

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/auth/models"
	"github.com/brizzai/cms-oauth-relay/internal/auth/providers"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/brizzai/cms-oauth-relay/internal/telemetry"
	"github.com/brizzai/cms-oauth-relay/internal/views"
	"go.uber.org/zap"
)

// Handler serves the GET side of the relay routes
type Handler struct {
	config       *config.OAuthConfig
	authProvider providers.Provider
	metrics      *telemetry.ExchangeMetrics
}

// NewHandler creates a new Handler instance
func NewHandler(cfg *config.OAuthConfig, provider providers.Provider, metrics *telemetry.ExchangeMetrics) *Handler {
	return &Handler{
		config:       cfg,
		authProvider: provider,
		metrics:      metrics,
	}
}

// HandleLanding renders the root page exposing the authorization URL
func (h *Handler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	value := views.LandingValue{AuthURL: h.authProvider.GetAuthURL()}
	templ.Handler(views.Landing(value)).ServeHTTP(w, r)
}

// HandleAuthorize sends the browser to the provider consent screen
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.authProvider.GetAuthURL(), http.StatusFound)
}

// HandleAuthCallback exchanges the returned code and renders the outcome.
// Every path ends in a rendered page so the opener always gets an answer.
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	result := h.exchange(r)

	if result.OK() {
		payload, err := result.Payload.Encode()
		if err == nil {
			templ.Handler(views.Success(payload)).ServeHTTP(w, r)
			return
		}
		result = models.Failure(&models.ExchangeError{
			Kind:        models.ErrorKindExchangeFailed,
			Description: "could not encode the token payload",
			Err:         err,
		})
	}

	logger.Warn("Token exchange failed",
		zap.String("outcome", result.Outcome()),
		zap.Error(result.Err),
	)
	templ.Handler(
		views.Error(views.NewErrorValue(result.Err)),
		templ.WithStatus(h.errorStatus()),
	).ServeHTTP(w, r)
}

func (h *Handler) exchange(r *http.Request) models.ExchangeResult {
	code := r.URL.Query().Get(constants.CodeQueryParam)
	if code == "" {
		result := models.Failure(&models.ExchangeError{
			Kind:        models.ErrorKindMissingCode,
			Description: "the provider did not return an authorization code",
		})
		h.metrics.Record(r.Context(), result.Outcome(), 0)
		return result
	}

	req := models.TokenExchangeRequest{
		AuthorizationCode: code,
		ClientID:          h.config.ClientID,
		ClientSecret:      h.config.ClientSecret,
	}

	start := time.Now()
	result := h.authProvider.ExchangeCode(r.Context(), req)
	h.metrics.Record(r.Context(), result.Outcome(), time.Since(start))

	if result.OK() {
		logger.Info("Token exchange succeeded", zap.String("provider", h.authProvider.Name()))
	} else if result.Err == nil {
		result.Err = &models.ExchangeError{Kind: models.ErrorKindExchangeFailed}
	}
	return result
}

func (h *Handler) errorStatus() int {
	if h.config.ErrorStatus == 0 {
		return http.StatusOK
	}
	return h.config.ErrorStatus
}
