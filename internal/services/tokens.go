package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const accessTokenBytes = 24

// NewAccessToken returns an opaque URL-safe token for unauthenticated
// role-scoped reads.
func NewAccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
