package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
)

// SessionTokenBytes is the entropy of a session token.
const SessionTokenBytes = 32

// GenerateToken returns n random bytes encoded as URL-safe base64 without
// padding, suitable for cookies and headers.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateSessionToken returns a new opaque session token.
func GenerateSessionToken() (string, error) {
	return GenerateToken(SessionTokenBytes)
}

// HashToken returns the hex SHA-256 digest stored in place of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a raw token against a stored digest in constant time.
func TokenMatches(token, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(digest)) == 1
}

// SanitizeHeaders returns a copy of headers without credentials, for logging.
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	for _, header := range []string{"Authorization", "Cookie", "Set-Cookie", "X-CSRF-Token"} {
		clean.Del(header)
	}
	return clean
}
