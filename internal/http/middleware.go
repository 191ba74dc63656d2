package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/internal/auth"
)

type ctxKeyUserID struct{}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.WithFields(logrus.Fields{
					"http.req.id":       middleware.GetReqID(r.Context()),
					"http.req.path":     r.URL.Path,
					"http.req.method":   r.Method,
					"http.req.remote":   r.RemoteAddr,
					"http.resp.status":  ww.Status(),
					"http.resp.bytes":   ww.BytesWritten(),
					"http.resp.took_ms": time.Since(start).Milliseconds(),
				}).Info("request complete")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func corsHandler(origins []string) *cors.Cors {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			// Credentials cannot be combined with a wildcard origin.
			allowCredentials = false
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCredentials,
	})
}

// requireAuth rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				s.respondInternal(w, r, "verify token failed", err)
				return
			}
			s.respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID{}).(string)
	return id
}

// rateLimit throttles by client address. A nil limiter disables it.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow(r.Context(), "auth:"+clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			s.respondError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
