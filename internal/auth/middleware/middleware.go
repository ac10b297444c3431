package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
	"github.com/brizzai/cms-oauth-relay/internal/config"
	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"github.com/brizzai/cms-oauth-relay/internal/utils"
	"go.uber.org/zap"
)

// CORS holds the precomputed header values, it is safe for concurrent use
type CORS struct {
	allowOrigin string
	maxAge      string
}

// NewCORS creates the CORS header writer from configuration
func NewCORS(cfg *config.CORSConfig) *CORS {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = config.DefaultCORSMaxAge
	}
	return &CORS{
		allowOrigin: cfg.AllowOrigin(),
		maxAge:      strconv.Itoa(maxAge),
	}
}

// SetPreflightHeaders writes the headers answering an OPTIONS request
func (c *CORS) SetPreflightHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", c.allowOrigin)
	h.Set("Access-Control-Allow-Methods", constants.AllowMethods)
	h.Set("Access-Control-Allow-Headers", constants.AllowHeaders)
	h.Set("Access-Control-Max-Age", c.maxAge)
}

// SetResponseHeaders writes the headers carried by every other response
func (c *CORS) SetResponseHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", c.allowOrigin)
}

// MethodTable maps an HTTP method to the handler serving it on one route
type MethodTable map[string]http.HandlerFunc

// Route answers preflight requests, rejects methods missing from table with
// 400 "Invalid Method" and dispatches the rest.
func Route(cors *CORS, table MethodTable) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			cors.SetPreflightHeaders(w.Header())
			w.WriteHeader(http.StatusNoContent)
			return
		}

		cors.SetResponseHeaders(w.Header())

		handle, ok := table[r.Method]
		if !ok {
			utils.WriteText(w, constants.InvalidMethodBody, http.StatusBadRequest)
			return
		}
		handle(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests logs one line per request. Query strings are left out since
// the callback carries the authorization code.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}
