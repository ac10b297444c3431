package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/cms-oauth-relay/internal/auth"
	"github.com/brizzai/cms-oauth-relay/internal/auth/providers"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/requester"
	"github.com/brizzai/cms-oauth-relay/internal/server/handler"
	"github.com/brizzai/cms-oauth-relay/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testConfig(tokenURL string, metrics bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		OAuth: config.OAuthConfig{
			ClientID:        "client-123",
			ClientSecret:    "secret-456",
			Scopes:          config.DefaultScopes,
			AuthURL:         "https://github.com/login/oauth/authorize",
			TokenURL:        tokenURL,
			ExchangeTimeout: 2 * time.Second,
			ErrorStatus:     http.StatusOK,
		},
		CORS:      config.CORSConfig{Origin: "https://cms.example.com", QuoteOrigin: true, MaxAge: 3600},
		Telemetry: config.TelemetryConfig{ServiceName: "cms-oauth-relay-test"},
		Metrics:   config.MetricsConfig{Enabled: metrics},
	}
}

func startApp(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	var srv *Server
	app := fxtest.New(t,
		fx.Supply(cfg),
		config.Module,
		telemetry.Module,
		requester.Module,
		auth.Module,
		Module,
		fx.Populate(&srv),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_ServesRelayRoutes(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"abc123"}`))
	}))
	defer provider.Close()

	srv := startApp(t, testConfig(provider.URL, false))
	base := fmt.Sprintf("http://%s", srv.Addr())

	resp, body := get(t, base+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "scope=repo,user")

	resp, _ = get(t, base+"/auth")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://github.com/login/oauth/authorize?client_id=client-123&scope=repo,user", resp.Header.Get("Location"))

	resp, body = get(t, base+"/callback?code=VALIDCODE")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-outcome="success"`)

	resp, _ = get(t, base+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MetricsRoute(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
	}))
	defer provider.Close()

	srv := startApp(t, testConfig(provider.URL, true))
	base := fmt.Sprintf("http://%s", srv.Addr())

	resp, body := get(t, base+"/callback?code=BADCODE")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-outcome="error"`)

	resp, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `outcome="token_missing"`)
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig("http://127.0.0.1:1", false)
	cfg.Server.Port = port

	bundle, err := telemetry.Setup(context.Background(), cfg)
	require.NoError(t, err)
	r := requester.NewHTTPRequester(requester.HTTPRequesterParams{OAuthConfig: &cfg.OAuth})
	svc := auth.NewService(auth.ServiceParams{
		OAuthConfig: &cfg.OAuth,
		CORSConfig:  &cfg.CORS,
		Provider:    providers.NewGitHubProvider(&cfg.OAuth, r),
	})
	srv := NewServer(&cfg.Server, handler.NewHandler(svc, bundle))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServer_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig("http://127.0.0.1:1", false)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	bundle, err := telemetry.Setup(context.Background(), cfg)
	require.NoError(t, err)
	svc := auth.NewService(auth.ServiceParams{
		OAuthConfig: &cfg.OAuth,
		CORSConfig:  &cfg.CORS,
		Provider:    providers.NewGitHubProvider(&cfg.OAuth, nil),
	})
	srv := NewServer(&cfg.Server, handler.NewHandler(svc, bundle))

	assert.Error(t, srv.Start(context.Background()))
}

func TestRegisterLifecycle_BusyPortFailsStart(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig("http://127.0.0.1:1", false)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		config.Module,
		telemetry.Module,
		requester.Module,
		auth.Module,
		Module,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, app.Start(ctx))
}

func TestRegisterLifecycle_StopEndsServing(t *testing.T) {
	var srv *Server
	app := fxtest.New(t,
		fx.Supply(testConfig("http://127.0.0.1:1", false)),
		config.Module,
		telemetry.Module,
		requester.Module,
		auth.Module,
		Module,
		fx.Populate(&srv),
	)
	app.RequireStart()
	addr := srv.Addr()

	resp, _ := get(t, fmt.Sprintf("http://%s/", addr))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app.RequireStop()

	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}
