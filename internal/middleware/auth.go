package middleware

import (
	"log/slog"

	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/session"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/gofiber/fiber/v2"
)

const localsIdentity = "identity"

// SessionIdentity loads the signed-in identity from the session into the
// request locals and the user context. Requests without one pass through.
func SessionIdentity(logger *slog.Logger, sessions *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who, err := sessions.Identity(c)
		if err != nil {
			logger.Warn("ignoring unreadable session", "error", err)
			who = util.None[identity.Identity]()
		}

		c.Locals(localsIdentity, who)
		if id, ok := who.Get(); ok {
			c.SetUserContext(identity.NewContext(c.UserContext(), id))
		}

		return c.Next()
	}
}

// Actor returns the identity SessionIdentity stored for this request.
func Actor(c *fiber.Ctx) util.Optional[identity.Identity] {
	if who, ok := c.Locals(localsIdentity).(util.Optional[identity.Identity]); ok {
		return who
	}
	return util.None[identity.Identity]()
}

type AdminChecker interface {
	IsAdmin(who util.Optional[identity.Identity]) bool
}

// RequireAdmin rejects requests whose identity is not an admin user.
func RequireAdmin(checker AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := Actor(c)
		if !who.IsSet {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "sign in required",
			})
		}
		if !checker.IsAdmin(who) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}
		return c.Next()
	}
}
