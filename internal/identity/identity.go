// Package identity delegates sign-in to an external provider and notifies
// subscribers whenever the signed-in identity changes.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrAuthenticationFailed = errors.New("identity: authentication failed")
	ErrMissingCode          = errors.New("identity: missing authorization code")
	ErrUnknownIdentity      = errors.New("identity: unknown identity")
)

// Identity is the signed-in principal as reported by the provider.
type Identity struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Label is the value recorded in createdBy and uploadedBy fields.
func (i Identity) Label() string {
	if i.Email != "" {
		return i.Email
	}
	return i.DisplayName
}

// Credentials carry what the provider needs to finish a sign-in: the code and
// state from the redirect plus the PKCE verifier kept in the session.
type Credentials struct {
	Code     string
	State    string
	Verifier string
}

// Provider authenticates against an identity source.
type Provider interface {
	// AuthCodeURL is where the browser is sent to start signing in.
	AuthCodeURL(state, verifier string) string
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
