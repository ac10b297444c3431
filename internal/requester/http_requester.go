package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxBodySize caps how much of a provider response is read
const maxBodySize = 1 << 20

// HTTPRequester executes outbound calls to the identity provider
type HTTPRequester struct {
	client *http.Client
}

type HTTPRequesterParams struct {
	fx.In

	OAuthConfig *config.OAuthConfig
	Transport   http.RoundTripper `optional:"true"`
}

// NewHTTPRequester creates a new HTTPRequester with an instrumented transport
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	transport := params.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout:   params.OAuthConfig.ExchangeTimeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
}

// Do builds and executes the request, returning the buffered response
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request url: %w", err)
	}
	if len(req.Query) > 0 {
		query := target.Query()
		for key, values := range req.Query {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	// The query may carry secrets, only the endpoint is logged
	logger.Debug("outbound request",
		zap.String("method", req.Method),
		zap.String("host", target.Host),
		zap.String("path", target.Path),
	)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("Failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}
