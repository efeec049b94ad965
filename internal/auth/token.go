// Package auth provides the credential primitives for capturelog: API token
// generation/parsing with bcrypt hashing, signed WebAuthn challenge tokens, and
// the stateless HMAC-signed admin session token.
// See internal/middleware/auth.go for the request-time authentication logic
// that uses these primitives.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenSecretLength is the length of the random secret part of an API token in bytes
	TokenSecretLength = 32

	// TokenSeparator joins the token ID and secret in the raw presented form
	TokenSeparator = ":"

	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12
)

// dummyHash is a bcrypt hash of an unguessable throwaway value. When token
// lookup misses, the secret is compared against this hash anyway so that
// validation cost does not reveal whether the token ID exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("capturelog-dummy-comparison-value"), BcryptCost)

// GenerateTokenSecret creates the secret half of an API token.
// Returns: raw secret (to embed in the presented token once), bcrypt hash (to store).
func GenerateTokenSecret() (secret string, hash string, err error) {
	randomBytes := make([]byte, TokenSecretLength)
	_, err = rand.Read(randomBytes)
	if err != nil {
		return "", "", err
	}

	secret = base64.RawURLEncoding.EncodeToString(randomBytes)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", "", err
	}

	return secret, string(hashBytes), nil
}

// FormatToken builds the externally presented raw token "<id>:<secret>"
func FormatToken(id, secret string) string {
	return id + TokenSeparator + secret
}

// ParseToken splits a raw token into its ID and secret parts.
// Fails if the separator is absent or either part is empty.
func ParseToken(raw string) (id, secret string, err error) {
	id, secret, found := strings.Cut(raw, TokenSeparator)
	if !found || id == "" || secret == "" {
		return "", "", errors.New("token must have the form <id>:<secret>")
	}
	return id, secret, nil
}

// ValidateTokenSecret checks a provided secret against the stored bcrypt hash
func ValidateTokenSecret(secret, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret))
	return err == nil
}

// BurnComparison runs a bcrypt comparison against a throwaway hash. Called on
// the token-not-found path so a lookup miss costs the same as a hash mismatch.
func BurnComparison(secret string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
}

// ExtractBearerToken extracts the credential from an Authorization header.
// Expected format: "Bearer <token>".
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is empty")
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("token is empty after Bearer prefix")
	}

	return token, nil
}
