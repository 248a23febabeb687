// Package httpserver exposes the auth API over HTTP/JSON with chi.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	auditdomain "resume-analyzer/backend/internal/audit/domain"
	"resume-analyzer/backend/internal/identity/service"
	"resume-analyzer/backend/internal/logging"
)

// AuthAPI is the subset of service.AuthService the HTTP layer calls.
type AuthAPI interface {
	Signup(ctx context.Context, name, email, password string) (*service.SignupResult, error)
	Login(ctx context.Context, email, password string) (*service.PendingChallenge, error)
	VerifyOTP(ctx context.Context, email, code string) (*service.Identity, error)
	ResendOTP(ctx context.Context, email string) (*service.PendingChallenge, error)
	ValidateBearerToken(ctx context.Context, token string) (string, error)
	Profile(ctx context.Context, email string) (*service.Profile, error)
}

// ActivityReader lists recent audit entries for a user.
type ActivityReader interface {
	Recent(ctx context.Context, email string, limit int32) ([]*auditdomain.AuditLog, error)
}

// ReadinessChecker reports whether the backing store is reachable.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// Deps holds the server's collaborators. Auth is required.
type Deps struct {
	Auth      AuthAPI
	Activity  ActivityReader
	Readiness ReadinessChecker
	// DevOTP serves GET /dev/otp. Set only when dev disclosure is on.
	DevOTP http.HandlerFunc
	Logger *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	auth      AuthAPI
	activity  ActivityReader
	readiness ReadinessChecker
	devOTP    http.HandlerFunc
	logger    *slog.Logger
}

// New returns a Server over deps.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Server{
		auth:      deps.Auth,
		activity:  deps.Activity,
		readiness: deps.Readiness,
		devOTP:    deps.DevOTP,
		logger:    deps.Logger,
	}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.clientIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", s.handleSignup)
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/verify", s.handleVerify)
		api.Post("/auth/resend-otp", s.handleResendOTP)

		api.Group(func(private chi.Router) {
			private.Use(s.bearerAuth)
			private.Get("/user/profile", s.handleProfile)
			private.Get("/user/activity", s.handleActivity)
		})
	})

	if s.devOTP != nil {
		r.Get("/dev/otp", s.devOTP)
	}
	return r
}
