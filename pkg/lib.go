package pkg

import (
	"crypto/rand"
	"encoding/hex"
)

// RandToken returns n random bytes hex-encoded, used as opaque session tokens.
func RandToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
