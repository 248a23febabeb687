package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// Challenge is a one-time code issued to an email (stored in otp_challenges). Only the
// SHA-256 hash of the code is kept. A challenge moves from unverified to verified at most once.
type Challenge struct {
	ID         string
	Email      string
	CodeHash   string
	ExpiresAt  time.Time
	Verified   bool
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

// HashCode returns the hex-encoded SHA-256 hash of code.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// Matches reports whether code hashes to the stored hash, in constant time.
func (c *Challenge) Matches(code string) bool {
	if code == "" || c.CodeHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashCode(code)), []byte(c.CodeHash)) == 1
}

// ExpiredAt reports whether the challenge has expired at now. A challenge is expired from ExpiresAt onward.
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
