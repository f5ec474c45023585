// Package username derives unique display usernames from a free-form base
// name by appending a random 3-digit suffix.
package username

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const maxAttempts = 5

var ErrExhausted = errors.New("username: no free candidate found")

// ExistsFunc reports whether a candidate (lowercased key) is already taken.
type ExistsFunc func(candidate string) (bool, error)

// NormalizeBaseName lowercases the input and strips everything that is not
// a letter or digit. Returns "" when nothing usable remains.
func NormalizeBaseName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Generate returns base + a random 3-digit suffix, retrying on collisions.
// The base must already be normalized and non-empty.
func Generate(base string, exists ExistsFunc) (string, error) {
	if base == "" {
		return "", errors.New("username: empty base name")
	}
	for i := 0; i < maxAttempts; i++ {
		suffix, err := randomDigits(3)
		if err != nil {
			return "", err
		}
		candidate := base + suffix
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func randomDigits(n int) (string, error) {
	const digits = "0123456789"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		out[i] = digits[idx.Int64()]
	}
	return string(out), nil
}
