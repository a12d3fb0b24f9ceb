package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateResponseToken mints the opaque secret embedded in referral
// invitation links: 32 random bytes, hex-encoded.
func GenerateResponseToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}
