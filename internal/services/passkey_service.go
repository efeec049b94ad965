// passkey_service.go implements WebAuthn credential registration and login on
// top of github.com/go-webauthn/webauthn. Ceremony state travels in a signed
// challenge token (internal/auth/challenge.go) instead of a server-side table,
// so the two-step ceremonies stay stateless between the begin and finish
// calls.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/db/models"
)

// DefaultChallengeTTL bounds how long a begun ceremony stays redeemable
const DefaultChallengeTTL = 5 * time.Minute

// PasskeyService manages WebAuthn credentials and the registration and login
// ceremonies
type PasskeyService struct {
	webAuthn        *webauthn.WebAuthn
	credentials     PasskeyStore
	users           UserStore
	sessions        *SessionService
	challengeSecret []byte
	challengeTTL    time.Duration
	now             func() time.Time
}

// NewPasskeyService creates a new PasskeyService
func NewPasskeyService(w *webauthn.WebAuthn, credentials PasskeyStore, users UserStore, sessions *SessionService, challengeSecret []byte, challengeTTL time.Duration) *PasskeyService {
	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}
	return &PasskeyService{
		webAuthn:        w,
		credentials:     credentials,
		users:           users,
		sessions:        sessions,
		challengeSecret: challengeSecret,
		challengeTTL:    challengeTTL,
		now:             time.Now,
	}
}

// BeginRegistration starts a credential registration ceremony for an
// authenticated user. Returns the browser options and the challenge token the
// client must echo back to FinishRegistration.
func (s *PasskeyService) BeginRegistration(ctx context.Context, userID string) (*protocol.CredentialCreation, string, error) {
	wu, err := s.loadWebauthnUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	exclusions := make([]protocol.CredentialDescriptor, 0, len(wu.creds))
	for _, c := range wu.WebAuthnCredentials() {
		exclusions = append(exclusions, c.Descriptor())
	}

	options, sessionData, err := s.webAuthn.BeginRegistration(wu, webauthn.WithExclusions(exclusions))
	if err != nil {
		return nil, "", storageErr("begin webauthn registration", err)
	}

	token, err := s.signCeremony(userID, auth.CeremonyRegistration, sessionData)
	if err != nil {
		return nil, "", err
	}

	return options, token, nil
}

// FinishRegistration completes a registration ceremony and stores the new
// credential. The request body must be the browser's attestation response.
func (s *PasskeyService) FinishRegistration(ctx context.Context, userID, challengeToken string, r *http.Request, name *string) (*models.PasskeyCredential, error) {
	wu, err := s.loadWebauthnUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessionData, err := s.verifyCeremony(userID, auth.CeremonyRegistration, challengeToken)
	if err != nil {
		return nil, err
	}

	cred, err := s.webAuthn.FinishRegistration(wu, *sessionData, r)
	if err != nil {
		return nil, E(KindVerificationFailed, "passkey registration verification failed")
	}

	stored := &models.PasskeyCredential{
		ID:         base64.RawURLEncoding.EncodeToString(cred.ID),
		UserID:     userID,
		PublicKey:  cred.PublicKey,
		SignCount:  cred.Authenticator.SignCount,
		Transports: transportStrings(cred.Transport),
		DeviceType: deviceType(cred.Flags.BackupEligible),
		BackedUp:   cred.Flags.BackupState,
		Name:       name,
	}
	if err := s.credentials.CreateCredential(ctx, stored); err != nil {
		return nil, storageErr("create credential", err)
	}

	return stored, nil
}

// BeginLogin starts an authentication ceremony for the account behind an
// email address. The account must have at least one registered passkey.
func (s *PasskeyService) BeginLogin(ctx context.Context, email string) (*protocol.CredentialAssertion, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", storageErr("get user by email", err)
	}
	if user == nil {
		return nil, "", E(KindUserNotFound, "no account for this email")
	}

	wu, err := s.loadWebauthnUser(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	if len(wu.creds) == 0 {
		return nil, "", E(KindCredentialNotFound, "no passkeys registered for this account")
	}

	options, sessionData, err := s.webAuthn.BeginLogin(wu)
	if err != nil {
		return nil, "", storageErr("begin webauthn login", err)
	}

	token, err := s.signCeremony(user.ID, auth.CeremonyLogin, sessionData)
	if err != nil {
		return nil, "", err
	}

	return options, token, nil
}

// FinishLogin completes an authentication ceremony and creates a session for
// the user. A suspected cloned authenticator (non-increasing signature
// counter) fails the login; an otherwise valid assertion advances the stored
// counter before the session is issued.
func (s *PasskeyService) FinishLogin(ctx context.Context, email, challengeToken string, r *http.Request) (*models.UserSession, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("get user by email", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "no account for this email")
	}

	wu, err := s.loadWebauthnUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	sessionData, err := s.verifyCeremony(user.ID, auth.CeremonyLogin, challengeToken)
	if err != nil {
		return nil, err
	}

	cred, err := s.webAuthn.FinishLogin(wu, *sessionData, r)
	if err != nil {
		return nil, E(KindVerificationFailed, "passkey login verification failed")
	}
	if cred.Authenticator.CloneWarning {
		return nil, E(KindVerificationFailed, "authenticator signature counter regressed")
	}

	credentialID := base64.RawURLEncoding.EncodeToString(cred.ID)
	if err := s.credentials.UpdateSignCount(ctx, credentialID, cred.Authenticator.SignCount); err != nil {
		return nil, storageErr("update sign count", err)
	}

	return s.sessions.CreateSession(ctx, user.ID, "")
}

// ListCredentials lists a user's registered passkeys
func (s *PasskeyService) ListCredentials(ctx context.Context, userID string) ([]*models.PasskeyCredential, error) {
	creds, err := s.credentials.ListCredentialsByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list credentials", err)
	}
	return creds, nil
}

// DeleteCredential removes one of the caller's passkeys. The last remaining
// passkey cannot be deleted; that would lock the account out.
func (s *PasskeyService) DeleteCredential(ctx context.Context, userID, credentialID string) error {
	cred, err := s.credentials.GetCredentialByID(ctx, credentialID)
	if err != nil {
		return storageErr("get credential", err)
	}
	if cred == nil {
		return E(KindCredentialNotFound, "credential not found")
	}
	if cred.UserID != userID {
		return E(KindCredentialOwnership, "credential belongs to a different user")
	}

	count, err := s.credentials.CountCredentialsByUser(ctx, userID)
	if err != nil {
		return storageErr("count credentials", err)
	}
	if count <= 1 {
		return E(KindCannotDeleteLastPasskey, "cannot delete the last remaining passkey")
	}

	if err := s.credentials.DeleteCredential(ctx, credentialID); err != nil {
		return storageErr("delete credential", err)
	}
	return nil
}

func (s *PasskeyService) signCeremony(userID, ceremony string, sessionData *webauthn.SessionData) (string, error) {
	raw, err := json.Marshal(sessionData)
	if err != nil {
		return "", storageErr("marshal ceremony state", err)
	}
	token, err := auth.SignChallenge(s.challengeSecret, userID, ceremony, raw, s.challengeTTL, s.now())
	if err != nil {
		return "", storageErr("sign challenge", err)
	}
	return token, nil
}

func (s *PasskeyService) verifyCeremony(userID, ceremony, token string) (*webauthn.SessionData, error) {
	claims, err := auth.VerifyChallenge(s.challengeSecret, token, userID, ceremony)
	if err != nil {
		if errors.Is(err, auth.ErrChallengeExpired) {
			return nil, E(KindChallengeExpired, "challenge expired, restart the ceremony")
		}
		return nil, E(KindVerificationFailed, "challenge token invalid")
	}

	var sessionData webauthn.SessionData
	if err := json.Unmarshal(claims.SessionData, &sessionData); err != nil {
		return nil, E(KindVerificationFailed, "challenge token invalid")
	}
	return &sessionData, nil
}

func (s *PasskeyService) loadWebauthnUser(ctx context.Context, userID string) (*webauthnUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if user == nil {
		return nil, E(KindUserNotFound, "user not found")
	}

	creds, err := s.credentials.ListCredentialsByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list credentials", err)
	}

	return &webauthnUser{user: user, creds: creds}, nil
}

// webauthnUser adapts our user and credential models to the webauthn.User
// interface
type webauthnUser struct {
	user  *models.User
	creds []*models.PasskeyCredential
}

func (u *webauthnUser) WebAuthnID() []byte {
	return []byte(u.user.ID)
}

func (u *webauthnUser) WebAuthnName() string {
	return u.user.Email
}

func (u *webauthnUser) WebAuthnDisplayName() string {
	return u.user.Email
}

func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential {
	out := make([]webauthn.Credential, 0, len(u.creds))
	for _, c := range u.creds {
		id, err := base64.RawURLEncoding.DecodeString(c.ID)
		if err != nil {
			continue
		}
		transports := make([]protocol.AuthenticatorTransport, 0, len(c.Transports))
		for _, t := range c.Transports {
			transports = append(transports, protocol.AuthenticatorTransport(t))
		}
		out = append(out, webauthn.Credential{
			ID:        id,
			PublicKey: c.PublicKey,
			Transport: transports,
			Authenticator: webauthn.Authenticator{
				SignCount: c.SignCount,
			},
		})
	}
	return out
}

func transportStrings(transports []protocol.AuthenticatorTransport) []string {
	if len(transports) == 0 {
		return nil
	}
	out := make([]string, 0, len(transports))
	for _, t := range transports {
		out = append(out, string(t))
	}
	return out
}

// Credential device types, keyed off the backup-eligibility flag the
// authenticator reports during registration.
const (
	deviceTypeMultiDevice  = "multiDevice"
	deviceTypeSingleDevice = "singleDevice"
)

func deviceType(backupEligible bool) string {
	if backupEligible {
		return deviceTypeMultiDevice
	}
	return deviceTypeSingleDevice
}
