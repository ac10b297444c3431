package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/auth/models"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/brizzai/cms-oauth-relay/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GitHubProvider struct {
	endpoint  oauth2.Endpoint
	clientID  string
	scopes    []string
	requester *requester.HTTPRequester
}

func NewGitHubProvider(cfg *config.OAuthConfig, r *requester.HTTPRequester) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	var scopes []string
	for _, s := range strings.Split(cfg.Scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	return &GitHubProvider{
		endpoint:  endpoint,
		clientID:  cfg.ClientID,
		scopes:    scopes,
		requester: r,
	}
}

func (p *GitHubProvider) Name() string {
	return constants.ProviderName
}

// GetAuthURL keeps the comma between scopes literal, GitHub accepts either
// separator and deployed front ends match on the comma form.
func (p *GitHubProvider) GetAuthURL() string {
	escaped := make([]string, len(p.scopes))
	for i, s := range p.scopes {
		escaped[i] = url.QueryEscape(s)
	}

	sep := "?"
	if strings.Contains(p.endpoint.AuthURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%s=%s&%s=%s",
		p.endpoint.AuthURL, sep,
		constants.ParamClientID, url.QueryEscape(p.clientID),
		constants.ParamScope, strings.Join(escaped, ","),
	)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, req models.TokenExchangeRequest) models.ExchangeResult {
	resp, err := p.requester.Do(ctx, &requester.Request{
		Method: http.MethodPost,
		URL:    p.endpoint.TokenURL,
		Query: url.Values{
			constants.ParamCode:         {req.AuthorizationCode},
			constants.ParamClientID:     {req.ClientID},
			constants.ParamClientSecret: {req.ClientSecret},
		},
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		logger.Error("Token request to GitHub failed", zap.Error(err))
		return models.Failure(&models.ExchangeError{
			Kind:        models.ErrorKindExchangeFailed,
			Description: "could not reach the token endpoint",
			Err:         err,
		})
	}

	var token models.TokenResponse
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		logger.Error("Failed to decode token response",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return models.Failure(&models.ExchangeError{
			Kind:        models.ErrorKindExchangeFailed,
			Description: fmt.Sprintf("token endpoint returned an unreadable response (status %d)", resp.StatusCode),
			Err:         fmt.Errorf("failed to decode response: %w", err),
		})
	}

	if !token.HasAccessToken() {
		// GitHub answers a rejected code with 200 and an error body
		logger.Warn("Token response has no access_token",
			zap.Int("status", resp.StatusCode),
			zap.String("error", token.Error),
		)
		exchangeErr := &models.ExchangeError{
			Kind:        models.ErrorKindTokenMissing,
			Code:        token.Error,
			Description: token.ErrorDescription,
		}
		if !resp.IsSuccess() {
			exchangeErr.Err = fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
		}
		return models.Failure(exchangeErr)
	}

	if !resp.IsSuccess() {
		return models.Failure(&models.ExchangeError{
			Kind:        models.ErrorKindExchangeFailed,
			Description: fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
			Err:         fmt.Errorf("token endpoint returned status %d", resp.StatusCode),
		})
	}

	// presence decides success, an empty or null token is passed on as sent
	return models.Success(models.NewRawTokenPayload(token.AccessToken))
}
