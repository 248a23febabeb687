package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"resume-analyzer/backend/internal/apperr"
)

// MinSecretLen is the minimum HS256 signing secret length in bytes.
const MinSecretLen = 32

// SessionToken is a signed session token and the claims it was issued with.
type SessionToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer issues and validates HS256 session tokens. The secret is copied at construction
// and never exposed; a TokenIssuer is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer returns a TokenIssuer signing with secret. secret must be at least MinSecretLen bytes.
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("security: signing secret must be at least %d bytes", MinSecretLen)
	}
	if issuer == "" {
		return nil, errors.New("security: token issuer must be set")
	}
	if ttl <= 0 {
		return nil, errors.New("security: token ttl must be positive")
	}
	p := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	p.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return p.now() }),
	)
	return p, nil
}

// Generate issues a token for subject (the account email) expiring after the configured TTL.
func (p *TokenIssuer) Generate(subject string) (*SessionToken, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: empty token subject", apperr.ErrInvalidArgument)
	}
	now := p.now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &SessionToken{
		Token:     token,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies the token's signature, issuer and expiry and returns its subject.
// Errors are apperr.ErrTokenMalformed, apperr.ErrTokenSignatureInvalid or apperr.ErrTokenExpired.
// The signature is checked before expiry, so a forged expired token reports SignatureInvalid.
func (p *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := p.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return "", classifyTokenError(err)
	}
	if claims.Subject == "" {
		return "", apperr.ErrTokenMalformed
	}
	return claims.Subject, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperr.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperr.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.ErrTokenExpired
	default:
		// Wrong issuer, not-yet-valid: the token was not minted for this service.
		return apperr.ErrTokenSignatureInvalid
	}
}
