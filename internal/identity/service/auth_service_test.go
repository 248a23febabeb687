package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"resume-analyzer/backend/internal/apperr"
	auditdomain "resume-analyzer/backend/internal/audit/domain"
	credentialdomain "resume-analyzer/backend/internal/credential/domain"
	credentialrepo "resume-analyzer/backend/internal/credential/repository"
	"resume-analyzer/backend/internal/otp"
	otprepo "resume-analyzer/backend/internal/otp/repository"
	"resume-analyzer/backend/internal/security"
	"resume-analyzer/backend/internal/telemetry"
	"resume-analyzer/backend/internal/telemetry/telemetrytest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// inbox captures delivered codes per email.
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *inbox) Send(_ context.Context, email, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.codes == nil {
		b.codes = make(map[string]string)
	}
	b.codes[email] = code
	return nil
}

func (b *inbox) code(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type auditEntry struct {
	email, action string
	err           error
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) LogEvent(_ context.Context, email, action string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{email, action, err})
}

func (a *recordingAudit) last() auditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[len(a.entries)-1]
}

// countingHasher counts Matches calls.
type countingHasher struct {
	*security.Hasher
	matches atomic.Int32
}

func (h *countingHasher) Matches(plain, hash string) bool {
	h.matches.Add(1)
	return h.Hasher.Matches(plain, hash)
}

type harness struct {
	svc    *AuthService
	creds  *credentialrepo.MemoryRepository
	otps   *otp.Manager
	inbox  *inbox
	hasher *countingHasher
	audit  *recordingAudit
	tokens *security.TokenIssuer
	now    time.Time
	read   func(name, outcome string) int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	metrics, read := telemetrytest.NewMetrics(t)
	h := &harness{
		creds:  credentialrepo.NewMemoryRepository(),
		inbox:  &inbox{},
		hasher: &countingHasher{Hasher: security.NewHasher(4)},
		audit:  &recordingAudit{},
		tokens: security.NewTestTokenIssuer(),
		now:    time.Now().UTC(),
		read:   read,
	}
	m, err := otp.NewManager(otprepo.NewMemoryRepository(), h.inbox, otp.Config{
		TTL:     2 * time.Minute,
		Length:  6,
		Metrics: metrics,
		Now:     func() time.Time { return h.now },
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h.otps = m
	h.svc = NewAuthService(h.creds, h.hasher, m, h.tokens, Options{Audit: h.audit, Metrics: metrics})
	t.Cleanup(func() { _ = m.Drain(context.Background()) })
	return h
}

func (h *harness) signup(t *testing.T, name, email, password string) {
	t.Helper()
	if _, err := h.svc.Signup(context.Background(), name, email, password); err != nil {
		t.Fatalf("Signup: %v", err)
	}
}

// login logs in and returns the delivered code.
func (h *harness) login(t *testing.T, email, password string) string {
	t.Helper()
	if _, err := h.svc.Login(context.Background(), email, password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := h.otps.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	return h.inbox.code(credentialdomain.NormalizeEmail(email))
}

func TestSignup_Success(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Signup(context.Background(), " Alice ", " A@X.com ", "s3cret!")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if res.Message != "User registered successfully" {
		t.Errorf("Message = %q", res.Message)
	}
	c, _ := h.creds.FindByEmail(context.Background(), "a@x.com")
	if c == nil {
		t.Fatal("credential should be stored under the normalized email")
	}
	if c.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q", c.DisplayName)
	}
	if c.PasswordHash == "s3cret!" || !h.hasher.Hasher.Matches("s3cret!", c.PasswordHash) {
		t.Error("password should be stored hashed")
	}
	if e := h.audit.last(); e.action != auditdomain.ActionSignup || e.err != nil || e.email != "a@x.com" {
		t.Errorf("audit = %+v", e)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")

	_, err := h.svc.Signup(context.Background(), "Other", "A@X.COM", "different")
	if !errors.Is(err, apperr.ErrEmailAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
	if e := h.audit.last(); !errors.Is(e.err, apperr.ErrEmailAlreadyRegistered) {
		t.Errorf("audit err = %v", e.err)
	}
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	h := newHarness(t)
	const n = 8
	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Signup(context.Background(), "Alice", "a@x.com", "s3cret!")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrEmailAlreadyRegistered):
				dup.Add(1)
			default:
				t.Errorf("Signup: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 || dup.Load() != n-1 {
		t.Errorf("successes = %d, duplicates = %d", ok.Load(), dup.Load())
	}
}

func TestSignup_InvalidArgument(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name, email, password string
	}{
		{"", "a@x.com", "s3cret!"},
		{"   ", "a@x.com", "s3cret!"},
		{"Alice", "a@x.com", ""},
		{"Alice", "", "s3cret!"},
		{"Alice", "not-an-email", "s3cret!"},
		{"Alice", "a@x.com", strings.Repeat("p", 73)},
	}
	for _, tt := range tests {
		_, err := h.svc.Signup(context.Background(), tt.name, tt.email, tt.password)
		if !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("Signup(%q, %q, len %d) err = %v, want ErrInvalidArgument", tt.name, tt.email, len(tt.password), err)
		}
	}
	if exists, _ := h.creds.ExistsByEmail(context.Background(), "a@x.com"); exists {
		t.Error("invalid signups must not store a credential")
	}
}

func TestLogin_ReachesOTPPending(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")

	pending, err := h.svc.Login(context.Background(), "A@x.com", "s3cret!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pending.Email != "a@x.com" || pending.Message != "OTP sent successfully to a@x.com" {
		t.Errorf("pending = %+v", pending)
	}
	if err := h.otps.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if h.inbox.code("a@x.com") == "" {
		t.Error("a code should have been delivered")
	}
	if got := h.read("auth_login_attempts_total", telemetry.OutcomeSuccess); got != 1 {
		t.Errorf("successful logins = %d, want 1", got)
	}
}

func TestLogin_InvalidCredentialsAreUniform(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")

	_, wrongPassword := h.svc.Login(context.Background(), "a@x.com", "nope")
	before := h.hasher.matches.Load()
	_, unknownEmail := h.svc.Login(context.Background(), "bob@x.com", "s3cret!")

	for _, err := range []error{wrongPassword, unknownEmail} {
		if !errors.Is(err, apperr.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
	if h.hasher.matches.Load() != before+1 {
		t.Error("unknown email should still run one password comparison")
	}
	if h.inbox.code("a@x.com") != "" || h.inbox.code("bob@x.com") != "" {
		t.Error("failed logins must not issue codes")
	}
	if got := h.read("auth_login_attempts_total", telemetry.OutcomeInvalid); got != 2 {
		t.Errorf("invalid logins = %d, want 2", got)
	}
}

func TestLogin_EmptyFields(t *testing.T) {
	h := newHarness(t)
	for _, tc := range [][2]string{{"", "pw"}, {"a@x.com", ""}} {
		if _, err := h.svc.Login(context.Background(), tc[0], tc[1]); !errors.Is(err, apperr.ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) err = %v", tc[0], tc[1], err)
		}
	}
}

// Alice signs up, logs in, verifies, uses the token, and cannot reuse the code.
func TestScenario_LoginVerifyAndReuse(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")
	code := h.login(t, "a@x.com", "s3cret!")

	id, err := h.svc.VerifyOTP(context.Background(), "a@x.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if id.Name != "Alice" || id.Email != "a@x.com" || id.Token == "" {
		t.Fatalf("identity = %+v", id)
	}
	if !id.ExpiresAt.After(time.Now()) {
		t.Errorf("ExpiresAt = %v should be in the future", id.ExpiresAt)
	}

	email, err := h.svc.ValidateBearerToken(context.Background(), id.Token)
	if err != nil {
		t.Fatalf("ValidateBearerToken: %v", err)
	}
	if email != "a@x.com" {
		t.Errorf("subject = %q, want a@x.com", email)
	}

	_, err = h.svc.VerifyOTP(context.Background(), "a@x.com", code)
	if !errors.Is(err, apperr.ErrInvalidOTP) || apperr.KindOf(err) != apperr.KindOTPNotFound {
		t.Fatalf("reused code err = %v (kind %s), want InvalidOtp/OTP_NOT_FOUND", err, apperr.KindOf(err))
	}
	if e := h.audit.last(); e.action != auditdomain.ActionOTPVerify || e.err == nil {
		t.Errorf("audit = %+v", e)
	}
}

// A resent code supersedes the first one.
func TestScenario_ResendSupersedes(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")
	c1 := h.login(t, "a@x.com", "s3cret!")

	var c2 string
	for i := 0; i < 5 && (c2 == "" || c2 == c1); i++ {
		pending, err := h.svc.ResendOTP(context.Background(), "a@x.com")
		if err != nil {
			t.Fatalf("ResendOTP: %v", err)
		}
		if pending.Message != "OTP sent successfully to a@x.com" {
			t.Errorf("Message = %q", pending.Message)
		}
		if err := h.otps.Drain(context.Background()); err != nil {
			t.Fatalf("Drain: %v", err)
		}
		c2 = h.inbox.code("a@x.com")
	}
	if c1 == c2 {
		t.Fatal("could not draw a distinct resend code")
	}

	if _, err := h.svc.VerifyOTP(context.Background(), "a@x.com", c1); apperr.KindOf(err) != apperr.KindOTPNotFound {
		t.Fatalf("Verify(C1) err = %v, want OTP_NOT_FOUND", err)
	}
	if _, err := h.svc.VerifyOTP(context.Background(), "a@x.com", c2); err != nil {
		t.Fatalf("Verify(C2): %v", err)
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")
	code := h.login(t, "a@x.com", "s3cret!")

	h.now = h.now.Add(2 * time.Minute)
	_, err := h.svc.VerifyOTP(context.Background(), "a@x.com", code)
	if !errors.Is(err, apperr.ErrInvalidOTP) || !errors.Is(err, apperr.ErrOTPExpired) {
		t.Fatalf("err = %v, want InvalidOtp joined with OtpExpired", err)
	}
}

func TestVerifyOTP_TrimsCode(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")
	code := h.login(t, "a@x.com", "s3cret!")

	if _, err := h.svc.VerifyOTP(context.Background(), " A@X.com ", " "+code+" "); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
}

type alwaysValidOTP struct{}

func (alwaysValidOTP) Issue(_ context.Context, email string) (*otp.Issued, error) {
	return &otp.Issued{Email: email, Message: "OTP sent successfully to " + email}, nil
}
func (alwaysValidOTP) Verify(context.Context, string, string) error { return nil }

func TestVerifyOTP_UserVanished(t *testing.T) {
	svc := NewAuthService(credentialrepo.NewMemoryRepository(), security.NewHasher(4), alwaysValidOTP{}, security.NewTestTokenIssuer(), Options{})

	_, err := svc.VerifyOTP(context.Background(), "ghost@x.com", "123456")
	if !errors.Is(err, apperr.ErrUserVanished) {
		t.Fatalf("err = %v, want ErrUserVanished", err)
	}
}

func TestResendOTP_UnknownUser(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.ResendOTP(context.Background(), "nobody@x.com"); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestValidateBearerToken_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ValidateBearerToken(context.Background(), "not-a-token")
	if !errors.Is(err, apperr.ErrTokenMalformed) {
		t.Errorf("malformed err = %v", err)
	}

	other, err := security.NewTokenIssuer([]byte(strings.Repeat("k", 32)), "test-issuer", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	forged, err := other.Generate("a@x.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := h.svc.ValidateBearerToken(context.Background(), forged.Token); !errors.Is(err, apperr.ErrTokenSignatureInvalid) {
		t.Errorf("forged err = %v", err)
	}

	if got := h.read("auth_token_validations_total", telemetry.OutcomeMalformed); got != 1 {
		t.Errorf("malformed validations = %d, want 1", got)
	}
	if got := h.read("auth_token_validations_total", telemetry.OutcomeSignatureInvalid); got != 1 {
		t.Errorf("signature_invalid validations = %d, want 1", got)
	}
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "Alice", "a@x.com", "s3cret!")

	p, err := h.svc.Profile(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Name != "Alice" || p.Email != "a@x.com" {
		t.Errorf("profile = %+v", p)
	}
	if _, err := h.svc.Profile(context.Background(), "nobody@x.com"); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Errorf("unknown profile err = %v", err)
	}
}

type brokenCreds struct{}

func (brokenCreds) FindByEmail(context.Context, string) (*credentialdomain.Credential, error) {
	return nil, apperr.ErrStoreFailure
}
func (brokenCreds) ExistsByEmail(context.Context, string) (bool, error) {
	return false, apperr.ErrStoreFailure
}
func (brokenCreds) Save(context.Context, *credentialdomain.Credential) error {
	return apperr.ErrStoreFailure
}

func TestStoreFailurePropagates(t *testing.T) {
	svc := NewAuthService(brokenCreds{}, security.NewHasher(4), alwaysValidOTP{}, security.NewTestTokenIssuer(), Options{})
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "Alice", "a@x.com", "pw"); !errors.Is(err, apperr.ErrStoreFailure) {
		t.Errorf("Signup err = %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "pw"); !errors.Is(err, apperr.ErrStoreFailure) {
		t.Errorf("Login err = %v", err)
	}
	if _, err := svc.ResendOTP(ctx, "a@x.com"); !errors.Is(err, apperr.ErrStoreFailure) {
		t.Errorf("ResendOTP err = %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, "a@x.com", "123456"); !errors.Is(err, apperr.ErrStoreFailure) {
		t.Errorf("VerifyOTP err = %v", err)
	}
}
