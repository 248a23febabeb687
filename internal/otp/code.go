package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCode returns a length-digit numeric code drawn uniformly from [0, 10^length) with
// crypto/rand, zero-padded (e.g. "004217").
func GenerateCode(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("otp: code length %d out of range", length)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

// wellFormed reports whether code has exactly length ASCII digits.
func wellFormed(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
