// Package auth hashes passwords and issues bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const saltBytes = 16

// HashPassword returns "<hex sha256(password+salt)>:<hex salt>" with a fresh salt.
func HashPassword(password string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	return digest(password, salt) + ":" + salt, nil
}

// VerifyPassword checks password against a stored hash. A hash without
// a separator never verifies.
func VerifyPassword(password, stored string) bool {
	sum, salt, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(digest(password, salt)), []byte(sum)) == 1
}

func digest(password, salt string) string {
	h := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(h[:])
}
