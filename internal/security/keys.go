package security

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidSecret is returned when no usable signing secret is configured.
var ErrInvalidSecret = errors.New("invalid signing secret")

// LoadSecret returns the signing secret from inline, or from the file at path when inline is empty.
// Surrounding whitespace (a trailing newline in a mounted secret file) is trimmed.
func LoadSecret(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidSecret
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing secret: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil, ErrInvalidSecret
	}
	return []byte(s), nil
}
