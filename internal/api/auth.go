package api

import (
	"log/slog"

	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/middleware"
	"github.com/freekieb7/casetrack/internal/session"
	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	logger    *slog.Logger
	sessions  *session.Store
	gateway   *identity.Gateway
	directory *user.Manager
}

func NewAuthHandler(logger *slog.Logger, sessions *session.Store, gateway *identity.Gateway, directory *user.Manager) *AuthHandler {
	return &AuthHandler{logger: logger, sessions: sessions, gateway: gateway, directory: directory}
}

// Login redirects to the identity provider.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, verifier, err := h.sessions.BeginLogin(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Redirect(h.gateway.LoginURL(state, verifier), fiber.StatusFound)
}

// Callback completes the sign-in started by Login.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	verifier, err := h.sessions.FinishLogin(c, c.Query("state"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	who, err := h.gateway.SignIn(c.UserContext(), identity.Credentials{
		Code:     c.Query("code"),
		State:    c.Query("state"),
		Verifier: verifier,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.sessions.SignIn(c, who); err != nil {
		return respondError(c, h.logger, err)
	}

	h.logger.Info("User signed in", "email", who.Email, "ip", c.IP())
	return h.me(c, who)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	who, err := h.sessions.SignOut(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if id, ok := who.Get(); ok {
		h.gateway.SignOut(c.UserContext(), id)
		h.logger.Info("User signed out", "email", id.Email, "ip", c.IP())
	}

	return c.JSON(fiber.Map{"status": "signed out"})
}

// Me reports the signed-in identity and whether it has the admin role.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	who, ok := middleware.Actor(c).Get()
	if !ok {
		return c.JSON(fiber.Map{
			"user":    nil,
			"isAdmin": false,
		})
	}
	return h.me(c, who)
}

func (h *AuthHandler) me(c *fiber.Ctx, who identity.Identity) error {
	return c.JSON(fiber.Map{
		"user":    who,
		"isAdmin": h.directory.IsAdmin(util.Some(who)),
	})
}
