package api

import (
	"errors"
	"log/slog"

	"github.com/freekieb7/casetrack/internal/cases"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/session"
	"github.com/freekieb7/casetrack/internal/storage"
	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/validator"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validator.ErrValidation),
		errors.Is(err, user.ErrInvalidRole):
		return fiber.StatusBadRequest
	case errors.Is(err, cases.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrAuthorizationFailed),
		errors.Is(err, storage.ErrUploadSlotFailed),
		errors.Is(err, storage.ErrUploadFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, identity.ErrAuthenticationFailed),
		errors.Is(err, identity.ErrUnknownIdentity),
		errors.Is(err, identity.ErrMissingCode),
		errors.Is(err, session.ErrStateMismatch):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// hidden from the client.
func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	status := statusFor(err)

	message := err.Error()
	switch status {
	case fiber.StatusInternalServerError:
		logger.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		message = "internal server error"
	case fiber.StatusBadGateway:
		message = "object storage is unavailable"
	case fiber.StatusUnauthorized:
		message = "sign-in failed"
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

func notFound(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return respondError(c, logger, err)
	}
}
