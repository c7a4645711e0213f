package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/ammo/internal/logging"
)

// requestLogger returns a logger carrying the request ID and client IP.
// RemoteAddr has already been rewritten by TrustedRealIP.
func requestLogger(r *http.Request) *slog.Logger {
	return logging.WithFields(r.Context(), "ip", r.RemoteAddr)
}
