package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const idBytes = 32

// GenerateID returns a random browser session id (256 bits, URL-safe).
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidID reports whether s looks like an id from GenerateID. Cookies that
// fail this are replaced rather than used as store keys.
func ValidID(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == idBytes
}
