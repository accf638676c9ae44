package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const deviceTokenPrefix = "dev_"

// GenerateDeviceToken mints a device credential and its storage hash. The
// plaintext is handed to the device exactly once at pair time; only the
// SHA-256 hash is persisted, so a database leak does not expose live
// credentials.
func GenerateDeviceToken() (plaintext, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}

	plaintext = deviceTokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return plaintext, HashDeviceToken(plaintext), nil
}

func HashDeviceToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func IsDeviceToken(token string) bool {
	return strings.HasPrefix(token, deviceTokenPrefix)
}
