package credentials

import (
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrMalformedToken = errors.New("credentials: malformed token")
	ErrColonInEmail   = errors.New("credentials: email must not contain ':'")
)

// EncodeToken builds the opaque Basic credential sent on every
// authenticated request: base64("email:password").
//
// The token is the reusable password encoding, not a server-issued
// session secret. Anyone holding it can replay it.
func EncodeToken(email, password string) (string, error) {
	if strings.Contains(email, ":") {
		return "", ErrColonInEmail
	}
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + password)), nil
}

// EmailFromToken recovers the email half of a token produced by EncodeToken.
func EmailFromToken(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", ErrMalformedToken
	}
	email, _, ok := strings.Cut(string(raw), ":")
	if !ok || email == "" {
		return "", ErrMalformedToken
	}
	return email, nil
}

// AuthorizationHeader returns the header value for a token.
func AuthorizationHeader(token string) string {
	return "Basic " + token
}
