package router

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/habitstack/service-habit-go/internal/habit"
	"github.com/habitstack/service-habit-go/internal/token"
	"github.com/habitstack/service-habit-go/internal/user"
	"github.com/habitstack/service-habit-go/pkg/utilities"
)

const requestIDHeader = "X-Request-Id"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", r.Header.Get(requestIDHeader),
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RequestIDMiddleware assigns a KSUID to requests that arrive without one
// and echoes it back on the response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(requestIDHeader) == "" {
				r.Header.Set(requestIDHeader, utilities.NewKSUID())
			}
			w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverMiddleware converts panics into a generic 500 so no internal
// detail leaks into the response.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorw("panic in handler", "panic", rec, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware gates protected routes: it extracts the bearer token,
// verifies it, and attaches the resolved identity to the request context.
// The token itself is the trust anchor; the credential store is not
// consulted per request.
func AuthMiddleware(issuer *token.Issuer) func(http.Handler) http.Handler {
	writeError := func(w http.ResponseWriter, status int, msg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if auth == "" || len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}
			claims, err := issuer.Verify(auth[len(prefix):])
			if err != nil {
				writeError(w, http.StatusForbidden, "invalid token")
				return
			}
			ctx := token.ContextWithIdentity(r.Context(), token.Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Handlers are passed in explicitly so tests can wire them over in-memory repos.
func RegisterRoutes(logger *zap.SugaredLogger, issuer *token.Issuer, userHandler *user.Handler, habitHandler *habit.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("POST /api/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/auth/login", userHandler.Login)

	authed := AuthMiddleware(issuer)
	mux.Handle("GET /api/habits", authed(http.HandlerFunc(habitHandler.List)))
	mux.Handle("POST /api/habits", authed(http.HandlerFunc(habitHandler.Create)))
	mux.Handle("PUT /api/habits/{id}", authed(http.HandlerFunc(habitHandler.Update)))
	mux.Handle("DELETE /api/habits/{id}", authed(http.HandlerFunc(habitHandler.Delete)))

	var handler http.Handler = mux
	handler = RecoverMiddleware(logger)(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	return handler
}
