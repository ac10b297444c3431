package utils

import (
	"io"
	"net/http"

	"github.com/brizzai/cms-oauth-relay/internal/logger"
	"go.uber.org/zap"
)

// WriteText writes a plain text response
func WriteText(w http.ResponseWriter, body string, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
