// internal/domain/identity/identity.go
package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrWeakPassword       = errors.New("identity: password must be at least 6 characters")
	ErrMissingDisplayName = errors.New("identity: display name is required")
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrEmailExists        = errors.New("identity: email already registered")
	ErrNotSignedIn        = errors.New("identity: not signed in")
)

// MinPasswordLength is the provider's minimum accepted password length.
const MinPasswordLength = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Identity is an authenticated user reference.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	// IDToken is the provider token presented to the HTTP API. Empty for
	// identities built from a verified token.
	IDToken      string    `json:"idToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
	Admin        bool      `json:"admin,omitempty"`
}

// Same reports whether a and b refer to the same user. Two nil identities are the same.
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}

// Profile is the user document kept at users/{uid}.
type Profile struct {
	UID       string
	Email     string
	FullName  string
	CreatedAt time.Time
	LastLogin time.Time
}

// ValidEmail reports whether s looks like an address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidateSignUp checks sign-up input before it reaches the provider.
func ValidateSignUp(email, password, displayName string) error {
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if strings.TrimSpace(displayName) == "" {
		return ErrMissingDisplayName
	}
	return nil
}

func ValidateSignIn(email, password string) error {
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if password == "" {
		return ErrInvalidCredentials
	}
	return nil
}
