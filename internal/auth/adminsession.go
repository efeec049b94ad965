// adminsession.go implements the stateless admin session token: a base64url
// JSON payload concatenated with an HMAC-SHA256 signature over that payload.
// The operator trust domain is deliberately separate from tenant sessions — no
// session table, no user record; the signature and TTL are the only authority.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// adminTokenSeparator joins the payload and signature halves of the token
const adminTokenSeparator = "."

var (
	// ErrAdminTokenMalformed indicates the token does not split into a
	// payload and signature, or the payload does not decode
	ErrAdminTokenMalformed = errors.New("admin session token malformed")

	// ErrAdminTokenSignature indicates an HMAC mismatch
	ErrAdminTokenSignature = errors.New("admin session token signature mismatch")

	// ErrAdminTokenExpired indicates the token's TTL has elapsed
	ErrAdminTokenExpired = errors.New("admin session token expired")
)

// AdminSessionPayload is the signed content of an admin session token
type AdminSessionPayload struct {
	IsAdmin   bool  `json:"isAdmin"`
	CreatedAt int64 `json:"createdAt"` // unix milliseconds
}

// SignAdminSession issues a stateless admin session token valid from now
func SignAdminSession(secret []byte, now time.Time) (string, error) {
	payload, err := json.Marshal(AdminSessionPayload{
		IsAdmin:   true,
		CreatedAt: now.UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + adminTokenSeparator + signPayload(secret, encoded), nil
}

// VerifyAdminSession checks a token's shape, signature, and TTL.
// The signature is recomputed and compared in constant time before the payload
// is decoded, so a forged payload is rejected without being parsed.
func VerifyAdminSession(secret []byte, token string, ttl time.Duration, now time.Time) error {
	encoded, signature, found := strings.Cut(token, adminTokenSeparator)
	if !found || encoded == "" || signature == "" {
		return ErrAdminTokenMalformed
	}

	expected := signPayload(secret, encoded)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrAdminTokenSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ErrAdminTokenMalformed
	}

	var payload AdminSessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ErrAdminTokenMalformed
	}
	if !payload.IsAdmin {
		return ErrAdminTokenMalformed
	}

	createdAt := time.UnixMilli(payload.CreatedAt)
	if !now.Before(createdAt.Add(ttl)) {
		return ErrAdminTokenExpired
	}

	return nil
}

// ComparePassword compares a provided password against the configured one
// using fixed-size digests so comparison time does not depend on password
// length or content.
func ComparePassword(configured, provided string) bool {
	configuredDigest := sha256.Sum256([]byte(configured))
	providedDigest := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(configuredDigest[:], providedDigest[:]) == 1
}

func signPayload(secret []byte, encodedPayload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}
