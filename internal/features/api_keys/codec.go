package api_keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
)

const (
	KeyPrefix = "lc_"
	// 32 random bytes gives 256 bits of entropy per key
	KeySecretLength  = 32
	DisplayPrefixLen = 12
)

// Structural shape of a well formed key: lc_{live|test}_{base64url secret}.
// Checked before any store lookup so malformed keys never reach the database.
var wellFormedKeyPattern = regexp.MustCompile(`^lc_(live|test)_[A-Za-z0-9_-]{40,}$`)

// GenerateKey creates a new random API key for the given environment.
// It returns the raw key (shown to the caller exactly once), its sha256
// digest for storage and a short display prefix for listings.
func GenerateKey(environment KeyEnvironment) (rawKey, digest, displayPrefix string, err error) {
	if !environment.IsValid() {
		return "", "", "", fmt.Errorf("invalid key environment: %s", environment)
	}

	secretBytes := make([]byte, KeySecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate key secret: %w", err)
	}

	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	rawKey = KeyPrefix + string(environment) + "_" + secret
	digest = DigestKey(rawKey)
	displayPrefix = rawKey[:DisplayPrefixLen] + "..."

	return rawKey, digest, displayPrefix, nil
}

// DigestKey computes the deterministic storage digest of a raw key.
// The raw key itself is never persisted.
func DigestKey(rawKey string) string {
	hasher := sha256.New()
	hasher.Write([]byte(rawKey))

	return hex.EncodeToString(hasher.Sum(nil))
}

func IsWellFormedKey(rawKey string) bool {
	return wellFormedKeyPattern.MatchString(rawKey)
}
