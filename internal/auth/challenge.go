// challenge.go issues and verifies the signed challenge tokens that bind a
// WebAuthn ceremony to one user for a short window. The token is an HS256 JWT
// whose claims carry the library's serialized session data; the signature and
// the exp claim are the only server-side state the ceremony needs, so no
// challenge table exists.
package auth

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ceremony names bound into challenge tokens. A registration challenge can
// never be replayed against the login endpoint and vice versa.
const (
	CeremonyRegistration = "registration"
	CeremonyLogin        = "login"
)

var (
	// ErrChallengeExpired indicates the challenge token's TTL has elapsed
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrChallengeInvalid indicates a malformed signature, wrong user, or
	// wrong ceremony
	ErrChallengeInvalid = errors.New("challenge invalid")
)

// ChallengeClaims is the JWT claims structure for WebAuthn challenge tokens
type ChallengeClaims struct {
	UserID      string          `json:"user_id"`
	Ceremony    string          `json:"ceremony"`
	SessionData json.RawMessage `json:"session_data"`
	jwt.RegisteredClaims
}

// SignChallenge creates a challenge token binding sessionData to a user and
// ceremony for the given TTL
func SignChallenge(secret []byte, userID, ceremony string, sessionData []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := &ChallengeClaims{
		UserID:      userID,
		Ceremony:    ceremony,
		SessionData: sessionData,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "capturelog",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyChallenge parses a challenge token and checks signature, expiry, user
// binding, and ceremony binding. Returns ErrChallengeExpired when only the TTL
// has elapsed and ErrChallengeInvalid for every other failure.
func VerifyChallenge(secret []byte, tokenString, wantUserID, wantCeremony string) (*ChallengeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ChallengeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrChallengeExpired
		}
		return nil, ErrChallengeInvalid
	}

	claims, ok := token.Claims.(*ChallengeClaims)
	if !ok || !token.Valid {
		return nil, ErrChallengeInvalid
	}

	if claims.UserID != wantUserID || claims.Ceremony != wantCeremony {
		return nil, ErrChallengeInvalid
	}

	return claims, nil
}
