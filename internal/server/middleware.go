package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/agent-settings/internal/logger"
	"github.com/brizzai/agent-settings/internal/utils"
	"go.uber.org/zap"
)

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a custom response writer to capture the status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process request
		next.ServeHTTP(rw, r)

		// Log request details
		duration := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", duration),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and passes it to the underlying ResponseWriter
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// TokenAuthMiddleware rejects requests that do not carry the configured
// shared token as a bearer credential
func TokenAuthMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" || got != token {
			utils.WriteError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// createHTTPHandler wraps the MCP handler with logging and, when a server
// auth token is configured, bearer-token authentication. Both the SSE and
// streamable HTTP servers share this wrapper.
func (s *Server) createHTTPHandler(mcpHandler http.Handler) http.Handler {
	handler := mcpHandler
	if token := s.config.Server.AuthToken; token != "" {
		handler = TokenAuthMiddleware(token, handler)
	}

	mux := http.NewServeMux()
	// Health stays public even when a token is configured
	mux.Handle("/healthz", LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, map[string]string{"status": "ok", "name": s.config.Server.Name})
	})))
	mux.Handle("/", LoggingMiddleware(handler))
	return mux
}
