// input.go validates and normalizes caller-supplied identity fields before
// they reach the services: email addresses on signup and invitations, and
// display names on tokens and organizations.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// MaxNameLength bounds token and organization display names
const MaxNameLength = 100

// NormalizeEmail lowercases and trims an email address. Lookups and
// uniqueness checks always operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that a string is a plausible bare email address.
// Display-name forms like "Alice <alice@example.com>" are rejected; only the
// address itself is accepted.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email address is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if addr.Address != email {
		return fmt.Errorf("email address must not include a display name")
	}
	return nil
}

// ValidateName checks a display name for tokens and organizations: non-empty
// after trimming, within length bounds, and free of control characters.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if len(trimmed) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("name must not contain control characters")
		}
	}
	return nil
}
