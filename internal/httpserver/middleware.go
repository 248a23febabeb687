package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/audit"
	"resume-analyzer/backend/internal/platform/httpjson"
)

type emailContextKey struct{}

// EmailFromContext returns the authenticated email set by the bearer middleware.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailContextKey{}).(string)
	return email, ok && email != ""
}

// bearerAuth validates the Authorization bearer token and stores its subject in the request context.
// Expired tokens carry a WWW-Authenticate challenge so clients can prompt a fresh login.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			httpjson.WriteKind(w, apperr.KindTokenMalformed)
			return
		}
		email, err := s.auth.ValidateBearerToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrTokenExpired) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
			}
			httpjson.WriteError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), emailContextKey{}, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// clientIP copies the remote address (already rewritten by middleware.RealIP) into the audit context.
func (s *Server) clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(audit.WithClientIP(r.Context(), ip)))
	})
}

// requestLogger logs one line per request. Bodies are never logged.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/healthz" {
			return
		}
		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
