// Package services implements the domain services of the capturelog auth core:
// token, session, membership, invitation, passkey, user, and admin-session
// services. Each service depends on narrow store interfaces satisfied by
// internal/db/repositories, so domain rules are testable without a database.
//
// Expected failures are modeled as a closed set of error kinds rather than
// ad-hoc error strings. Services return *Error values for every expected
// condition; callers branch on the kind with IsKind or KindOf, and the HTTP
// layer maps kinds to status codes exhaustively in one place
// (internal/api/respond.go). Unexpected storage faults are wrapped with
// KindStorage so the underlying cause stays attached for logging but is never
// leaked to clients.
package services

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one expected failure condition.
type ErrorKind string

const (
	// not-found kinds
	KindUserNotFound         ErrorKind = "user_not_found"
	KindOrganizationNotFound ErrorKind = "organization_not_found"
	KindTokenNotFound        ErrorKind = "token_not_found"
	KindSessionNotFound      ErrorKind = "session_not_found"
	KindMembershipNotFound   ErrorKind = "membership_not_found"
	KindCredentialNotFound   ErrorKind = "credential_not_found"
	KindInvitationNotFound   ErrorKind = "invitation_not_found"

	// conflict kinds
	KindAlreadyMember           ErrorKind = "already_member"
	KindCannotLeavePersonalOrg  ErrorKind = "cannot_leave_personal_org"
	KindLastAdmin               ErrorKind = "last_admin"
	KindCannotChangeOwnerRole   ErrorKind = "cannot_change_owner_role"
	KindCannotDeleteLastPasskey ErrorKind = "cannot_delete_last_passkey"
	KindCredentialOwnership     ErrorKind = "credential_ownership"
	KindEmailTaken              ErrorKind = "email_taken"
	KindTokenLimitReached       ErrorKind = "token_limit_reached"

	// expiry kinds
	KindSessionExpired            ErrorKind = "session_expired"
	KindInvitationExpired         ErrorKind = "invitation_expired"
	KindInvitationAlreadyAccepted ErrorKind = "invitation_already_accepted"
	KindChallengeExpired          ErrorKind = "challenge_expired"

	// authentication / authorization kinds
	KindInvalidTokenFormat      ErrorKind = "invalid_token_format"
	KindInvalidSecret           ErrorKind = "invalid_secret"
	KindInvalidSignature        ErrorKind = "invalid_signature"
	KindVerificationFailed      ErrorKind = "verification_failed"
	KindInvitationEmailMismatch ErrorKind = "invitation_email_mismatch"
	KindNotAMember              ErrorKind = "not_a_member"
	KindNoMemberships           ErrorKind = "no_memberships"
	KindInsufficientRole        ErrorKind = "insufficient_role"
	KindInvalidRole             ErrorKind = "invalid_role"
	KindInvalidEmail            ErrorKind = "invalid_email"
	KindUnauthenticated         ErrorKind = "unauthenticated"

	// storage kind — opaque wrapper around the underlying cause
	KindStorage ErrorKind = "storage"
)

// Error is a typed domain error. Message is safe to return to clients; Err
// (if set) carries the underlying cause for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a typed error with a client-safe message
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef creates a typed error with a formatted client-safe message
func Ef(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// storageErr wraps an unexpected store failure
func storageErr(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage failure", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf extracts the error kind from err, or "" if err is not a typed
// domain error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a typed domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
