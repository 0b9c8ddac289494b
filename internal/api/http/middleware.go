package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/security"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware resolves the bearer token to an actor id and stores it on
// the request context. Requests without a token pass through unauthenticated;
// handlers that need an actor fall back to their own default.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				actor, err := tokens.ResolveActor(token)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				r = r.WithContext(context.WithValue(r.Context(), actorKey, actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorFrom returns the authenticated actor, or the fallback when the
// request carried no token.
func actorFrom(r *http.Request, fallback string) string {
	if actor, ok := r.Context().Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return fallback
}

// LoggingMiddleware records one line per request in the access log.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
