package security

import "time"

// TestSecret is a fixed signing secret for unit tests only. Do not use in production.
const TestSecret = "test-secret-0123456789abcdef-0123456789"

// NewTestTokenIssuer returns a TokenIssuer signing with TestSecret, issuer "test-issuer" and a one hour TTL.
// For unit tests only.
func NewTestTokenIssuer() *TokenIssuer {
	p, err := NewTokenIssuer([]byte(TestSecret), "test-issuer", time.Hour)
	if err != nil {
		panic(err)
	}
	return p
}
