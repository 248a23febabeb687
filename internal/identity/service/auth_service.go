// Package service implements the credential flow: signup, password login gated by a one-time
// code, code verification that issues a session token, and bearer token validation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer/backend/internal/apperr"
	auditdomain "resume-analyzer/backend/internal/audit/domain"
	credentialdomain "resume-analyzer/backend/internal/credential/domain"
	"resume-analyzer/backend/internal/logging"
	"resume-analyzer/backend/internal/otp"
	"resume-analyzer/backend/internal/security"
	"resume-analyzer/backend/internal/telemetry"
)

var tracer = otel.Tracer("resume-analyzer/backend/identity")

const defaultStoreTimeout = 5 * time.Second

// dummyPassword is hashed once and compared against on logins for unknown emails.
const dummyPassword = "resume-analyzer-dummy-password"

// SignupResult is returned by a successful Signup.
type SignupResult struct {
	Message string
}

// PendingChallenge is returned by Login and ResendOTP: a code was sent and must be verified.
type PendingChallenge struct {
	Email   string
	Message string
}

// Identity is the authenticated user returned by VerifyOTP.
type Identity struct {
	Name      string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Profile is the public view of a credential.
type Profile struct {
	Name  string
	Email string
}

// CredentialRepo is the minimal credential repository needed by the auth service.
type CredentialRepo interface {
	FindByEmail(ctx context.Context, email string) (*credentialdomain.Credential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, c *credentialdomain.Credential) error
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}

// OTPManager issues and consumes one-time codes.
type OTPManager interface {
	Issue(ctx context.Context, email string) (*otp.Issued, error)
	Verify(ctx context.Context, email, code string) error
}

// TokenIssuer signs and validates session tokens.
type TokenIssuer interface {
	Generate(subject string) (*security.SessionToken, error)
	Validate(token string) (string, error)
}

// AuditLogger records auth outcomes best-effort.
type AuditLogger interface {
	LogEvent(ctx context.Context, email, action string, err error)
}

// Options holds the optional collaborators of AuthService.
type Options struct {
	StoreTimeout time.Duration
	Audit        AuditLogger
	Metrics      *telemetry.Metrics
	Logger       *slog.Logger
}

// AuthService implements signup, login, verifyOtp, resendOtp, profile and validateBearerToken.
// Per login attempt the state moves UNAUTHENTICATED -> OTP_PENDING (Login) -> AUTHENTICATED
// (VerifyOTP); a failure leaves the state where it was.
type AuthService struct {
	creds        CredentialRepo
	hasher       PasswordHasher
	otps         OTPManager
	tokens       TokenIssuer
	audit        AuditLogger
	metrics      *telemetry.Metrics
	logger       *slog.Logger
	storeTimeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(creds CredentialRepo, hasher PasswordHasher, otps OTPManager, tokens TokenIssuer, opts Options) *AuthService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &AuthService{
		creds:        creds,
		hasher:       hasher,
		otps:         otps,
		tokens:       tokens,
		audit:        opts.Audit,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		storeTimeout: opts.StoreTimeout,
	}
}

// Signup registers name/email/password. The email is normalized before the uniqueness check.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (_ *SignupResult, err error) {
	email = credentialdomain.NormalizeEmail(email)
	ctx, span := tracer.Start(ctx, "auth.signup")
	defer func() {
		endSpan(span, err)
		s.record(ctx, email, auditdomain.ActionSignup, err)
	}()

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: name and password are required", apperr.ErrInvalidArgument)
	}
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	exists, err := s.creds.ExistsByEmail(sctx, email)
	cancel()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrEmailAlreadyRegistered
	}

	hashed, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}
	if err != nil {
		return nil, err
	}
	c := &credentialdomain.Credential{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	sctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
	err = s.creds.Save(sctx, c)
	cancel()
	if err != nil {
		return nil, err
	}
	return &SignupResult{Message: "User registered successfully"}, nil
}

// Login checks email/password and, on success, issues a one-time code. Unknown email and wrong
// password both fail with apperr.ErrInvalidCredentials after a bcrypt comparison. No token is issued.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *PendingChallenge, err error) {
	email = credentialdomain.NormalizeEmail(email)
	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() {
		endSpan(span, err)
		s.metrics.LoginAttempted(ctx, loginOutcome(err))
		s.record(ctx, email, auditdomain.ActionLogin, err)
	}()

	if email == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	c, err := s.creds.FindByEmail(sctx, email)
	cancel()
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.hasher.Matches(password, s.dummy())
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.Matches(password, c.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}
	return s.issue(ctx, email)
}

// VerifyOTP consumes code for email and returns the identity with a fresh session token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (_ *Identity, err error) {
	email = credentialdomain.NormalizeEmail(email)
	ctx, span := tracer.Start(ctx, "auth.verify_otp")
	defer func() {
		endSpan(span, err)
		s.record(ctx, email, auditdomain.ActionOTPVerify, err)
	}()

	if err := s.otps.Verify(ctx, email, strings.TrimSpace(code)); err != nil {
		if errors.Is(err, apperr.ErrOTPNotFound) || errors.Is(err, apperr.ErrOTPExpired) {
			return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidOTP, err)
		}
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	c, err := s.creds.FindByEmail(sctx, email)
	cancel()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrUserVanished
	}
	tok, err := s.tokens.Generate(email)
	if err != nil {
		return nil, err
	}
	return &Identity{Name: c.DisplayName, Email: c.Email, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

// ResendOTP issues a new code for a registered email, superseding any unverified one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (_ *PendingChallenge, err error) {
	email = credentialdomain.NormalizeEmail(email)
	defer func() { s.record(ctx, email, auditdomain.ActionOTPResend, err) }()

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	c, err := s.creds.FindByEmail(sctx, email)
	cancel()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrUserNotFound
	}
	return s.issue(ctx, email)
}

// ValidateBearerToken returns the email the token was issued to.
func (s *AuthService) ValidateBearerToken(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.Validate(token)
	s.metrics.TokenValidated(ctx, tokenOutcome(err))
	return email, err
}

// Profile returns the name and email registered for email.
func (s *AuthService) Profile(ctx context.Context, email string) (*Profile, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	c, err := s.creds.FindByEmail(sctx, credentialdomain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrUserNotFound
	}
	return &Profile{Name: c.DisplayName, Email: c.Email}, nil
}

func (s *AuthService) issue(ctx context.Context, email string) (*PendingChallenge, error) {
	issued, err := s.otps.Issue(ctx, email)
	if err != nil {
		return nil, err
	}
	return &PendingChallenge{Email: issued.Email, Message: issued.Message}, nil
}

// dummy returns a hash at the hasher's cost so unknown-email logins cost as much as real ones.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("hash dummy password", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *AuthService) record(ctx context.Context, email, action string, err error) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, email, action, err)
	}
	if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindStoreFailure {
		logging.LogError(ctx, s.logger, action+" failed", err, "email", email)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return telemetry.OutcomeInvalid
	default:
		return telemetry.OutcomeError
	}
}

func tokenOutcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, apperr.ErrTokenExpired):
		return telemetry.OutcomeExpired
	case errors.Is(err, apperr.ErrTokenSignatureInvalid):
		return telemetry.OutcomeSignatureInvalid
	default:
		return telemetry.OutcomeMalformed
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}
