package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltBytes is the size of the random per-user salt.
	saltBytes = 16

	// pbkdf2Iterations trades login latency for brute-force resistance.
	pbkdf2Iterations = 210_000

	// derivedKeyLen is the PBKDF2 output size in bytes.
	derivedKeyLen = 32
)

// generateSalt returns a hex-encoded random salt for a new credentials row.
func generateSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}

	return hex.EncodeToString(salt), nil
}

// hashPassword derives the stored password hash with PBKDF2-SHA256 over the
// plaintext and the account's salt. The same derivation runs at registration
// and at login; only derived values are ever compared or persisted.
func hashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, derivedKeyLen, sha256.New)
	return hex.EncodeToString(key)
}
