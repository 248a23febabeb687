package domain

import (
	"errors"
	"strings"
	"time"
)

// Credential is a registered account: its normalized email, display name and password hash.
// Credentials are created by signup and never deleted.
type Credential struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail lower-cases and trims email. Every lookup and insert uses the normalized form.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Validate validates the credential for persistence. Returns an error describing the first validation failure.
func (c *Credential) Validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.Email == "" || c.Email != NormalizeEmail(c.Email) {
		return errors.New("email must be set and normalized")
	}
	if c.DisplayName == "" {
		return errors.New("display name is required")
	}
	if c.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
