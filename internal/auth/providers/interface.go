package providers

import (
	"context"

	"github.com/brizzai/cms-oauth-relay/internal/auth/models"
)

// Provider defines what the relay needs from an identity provider
type Provider interface {
	// Name returns the provider identifier posted to the CMS
	Name() string

	// GetAuthURL returns the authorization URL for the provider
	GetAuthURL() string

	// ExchangeCode exchanges an authorization code for an access token.
	// Failures are reported in the result, never as a panic or bare error.
	ExchangeCode(ctx context.Context, req models.TokenExchangeRequest) models.ExchangeResult
}
