package api

import (
	"log/slog"

	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/gofiber/fiber/v2"
)

type DirectoryHandler struct {
	logger    *slog.Logger
	directory *user.Manager
}

func NewDirectoryHandler(logger *slog.Logger, directory *user.Manager) *DirectoryHandler {
	return &DirectoryHandler{logger: logger, directory: directory}
}

type addUserRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
	Role  string `json:"role" form:"role"`
}

type updateUserRequest struct {
	Name  util.Optional[string] `json:"name"`
	Email util.Optional[string] `json:"email"`
	Role  util.Optional[string] `json:"role"`
}

type addCaseManagerRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
}

func (h *DirectoryHandler) ListUsers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"users": h.directory.ListUsers()})
}

func (h *DirectoryHandler) AddUser(c *fiber.Ctx) error {
	var req addUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.directory.AddUser(c.UserContext(), user.AddUserParams{
		Name:  req.Name,
		Email: req.Email,
		Role:  util.NonZero(user.Role(req.Role)),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *DirectoryHandler) UpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	params := user.UpdateUserParams{
		Name:  req.Name,
		Email: req.Email,
	}
	if role, ok := req.Role.Get(); ok {
		params.Role = util.Some(user.Role(role))
	}

	updated, err := h.directory.UpdateUser(c.UserContext(), c.Params("id"), params)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !updated.IsSet {
		return notFound(c, "user")
	}

	return c.JSON(updated.Val)
}

func (h *DirectoryHandler) RemoveUser(c *fiber.Ctx) error {
	if err := h.directory.RemoveUser(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DirectoryHandler) ListCaseManagers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"caseManagers": h.directory.ListCaseManagers()})
}

func (h *DirectoryHandler) AddCaseManager(c *fiber.Ctx) error {
	var req addCaseManagerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.directory.AddCaseManager(c.UserContext(), user.AddCaseManagerParams{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *DirectoryHandler) RemoveCaseManager(c *fiber.Ctx) error {
	if err := h.directory.RemoveCaseManager(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
