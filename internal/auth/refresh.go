package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const refreshTokenBytes = 64

// NewRefreshToken returns a URL-safe random string handed to the client as
// an opaque refresh capability.
func NewRefreshToken() (string, error) {
	return randomURLSafe(refreshTokenBytes)
}

// HashRefreshToken is the storage key for a raw refresh token. Only the
// digest is persisted.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewRandomPassword generates a throwaway password for federated accounts.
// 32 bytes encode to 43 characters, well inside bcrypt's 72 byte limit.
func NewRandomPassword() (string, error) {
	return randomURLSafe(32)
}

// RandomSuffix returns n random hex characters.
func RandomSuffix(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf)[:n], nil
}

func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
