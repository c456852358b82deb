// Package session keeps the signed-in identity and the pending login state in
// a fiber session stored on the application's key-value backend.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freekieb7/casetrack/internal/config"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	keyIdentity = "identity"
	keyState    = "oauth_state"
	keyVerifier = "oauth_verifier"

	stateLength = 24
)

var ErrStateMismatch = errors.New("session: login state mismatch")

type Store struct {
	sessions *session.Store
}

func New(cfg config.SessionConfig, storage fiber.Storage) *Store {
	return &Store{
		sessions: session.New(session.Config{
			Storage:        storage,
			Expiration:     cfg.Expiration,
			KeyLookup:      "cookie:" + cfg.CookieName,
			CookiePath:     "/",
			CookieSecure:   cfg.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
	}
}

// Identity returns the identity signed in on this request's session, if any.
func (s *Store) Identity(c *fiber.Ctx) (util.Optional[identity.Identity], error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return util.None[identity.Identity](), fmt.Errorf("failed to get session: %w", err)
	}

	raw, ok := sess.Get(keyIdentity).(string)
	if !ok || raw == "" {
		return util.None[identity.Identity](), nil
	}

	var who identity.Identity
	if err := json.Unmarshal([]byte(raw), &who); err != nil {
		return util.None[identity.Identity](), fmt.Errorf("failed to decode session identity: %w", err)
	}
	return util.Some(who), nil
}

// SignIn stores who on a fresh session id.
func (s *Store) SignIn(c *fiber.Ctx, who identity.Identity) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	data, err := json.Marshal(who)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Delete(keyState)
	sess.Delete(keyVerifier)
	sess.Set(keyIdentity, string(data))

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SignOut destroys the session and returns the identity that was signed in.
func (s *Store) SignOut(c *fiber.Ctx) (util.Optional[identity.Identity], error) {
	who, err := s.Identity(c)
	if err != nil {
		return who, err
	}

	sess, err := s.sessions.Get(c)
	if err != nil {
		return who, fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return who, fmt.Errorf("failed to destroy session: %w", err)
	}
	return who, nil
}

// BeginLogin generates and stores the OAuth state and PKCE verifier.
func (s *Store) BeginLogin(c *fiber.Ctx) (state string, verifier string, err error) {
	state, err = util.RandomString(stateLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	verifier = identity.GenerateVerifier()

	sess, err := s.sessions.Get(c)
	if err != nil {
		return "", "", fmt.Errorf("failed to get session: %w", err)
	}
	sess.Set(keyState, state)
	sess.Set(keyVerifier, verifier)
	if err := sess.Save(); err != nil {
		return "", "", fmt.Errorf("failed to save session: %w", err)
	}
	return state, verifier, nil
}

// FinishLogin checks state against the stored one and returns the verifier.
// The stored values are consumed either way.
func (s *Store) FinishLogin(c *fiber.Ctx, state string) (string, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	expected, _ := sess.Get(keyState).(string)
	verifier, _ := sess.Get(keyVerifier).(string)
	sess.Delete(keyState)
	sess.Delete(keyVerifier)
	if err := sess.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	if expected == "" || state != expected {
		return "", ErrStateMismatch
	}
	return verifier, nil
}
