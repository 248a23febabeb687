package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/logging"
	"resume-analyzer/backend/internal/platform/httpjson"
)

const (
	maxBodyBytes         = 1 << 16
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email   string `json:"email"`
	OTPCode string `json:"otpCode"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type pendingResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type identityResponse struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type profileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type activityEntry struct {
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
}

type activityResponse struct {
	Email   string          `json:"email"`
	Entries []activityEntry `json:"entries"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// decode reads a single JSON object from the body. Unknown fields are ignored.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(apperr.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logging.LogError(r.Context(), s.logger, "http: unhandled error", err, "path", r.URL.Path)
	}
	httpjson.WriteKind(w, kind)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, pendingResponse{Message: res.Message, Email: res.Email})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.auth.VerifyOTP(r.Context(), req.Email, req.OTPCode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, identityResponse{
		Name:      id.Name,
		Email:     id.Email,
		Token:     id.Token,
		ExpiresAt: id.ExpiresAt,
	})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.auth.ResendOTP(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, pendingResponse{Message: res.Message, Email: res.Email})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := EmailFromContext(r.Context())
	p, err := s.auth.Profile(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, profileResponse{Name: p.Name, Email: p.Email})
}

// handleActivity lists the caller's own audit trail, newest first. ?limit= is clamped to 1..100.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	email, _ := EmailFromContext(r.Context())
	limit := int32(defaultActivityLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpjson.WriteKind(w, apperr.KindInvalidArgument)
			return
		}
		limit = int32(min(n, maxActivityLimit))
	}

	resp := activityResponse{Email: email, Entries: []activityEntry{}}
	if s.activity != nil {
		logs, err := s.activity.Recent(r.Context(), email, limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		for _, l := range logs {
			resp.Entries = append(resp.Entries, activityEntry{
				Action:    l.Action,
				Outcome:   l.Outcome,
				IP:        l.IP,
				CreatedAt: l.CreatedAt,
			})
		}
	}
	httpjson.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		if err := s.readiness.Check(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			httpjson.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	httpjson.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
