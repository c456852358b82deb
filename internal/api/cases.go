package api

import (
	"log/slog"

	"github.com/freekieb7/casetrack/internal/cases"
	"github.com/freekieb7/casetrack/internal/middleware"
	"github.com/freekieb7/casetrack/internal/storage"
	"github.com/freekieb7/casetrack/internal/util"

	"github.com/gofiber/fiber/v2"
)

type CaseHandler struct {
	logger *slog.Logger
	cases  *cases.Manager
}

func NewCaseHandler(logger *slog.Logger, manager *cases.Manager) *CaseHandler {
	return &CaseHandler{logger: logger, cases: manager}
}

type createCaseRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Priority    string `json:"priority" form:"priority"`
	CaseManager string `json:"caseManager" form:"caseManager"`
}

type updateCaseRequest struct {
	Title       util.Optional[string] `json:"title"`
	Description util.Optional[string] `json:"description"`
	Priority    util.Optional[string] `json:"priority"`
	CaseManager util.Optional[string] `json:"caseManager"`
	Status      util.Optional[string] `json:"status"`
}

type setStatusRequest struct {
	Status string `json:"status" form:"status"`
}

type addNoteRequest struct {
	Content string `json:"content" form:"content"`
}

// ListCases returns all cases, or those matching ?q=.
func (h *CaseHandler) ListCases(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cases": h.cases.SearchCases(c.Query("q")),
	})
}

func (h *CaseHandler) CreateCase(c *fiber.Ctx) error {
	var req createCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := h.cases.CreateCase(c.UserContext(), middleware.Actor(c), cases.CreateCaseParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    cases.Priority(req.Priority),
		CaseManager: util.NonZero(req.CaseManager),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetCase returns the case with its notes and attachments.
func (h *CaseHandler) GetCase(c *fiber.Ctx) error {
	id := c.Params("id")
	found, ok := h.cases.GetCase(id).Get()
	if !ok {
		return notFound(c, "case")
	}

	return c.JSON(fiber.Map{
		"case":        found,
		"notes":       h.cases.ListNotes(id),
		"attachments": attachmentViews(h.cases.ListAttachments(id)),
	})
}

func (h *CaseHandler) UpdateCase(c *fiber.Ctx) error {
	var req updateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	params := cases.UpdateCaseParams{
		Title:       req.Title,
		Description: req.Description,
		CaseManager: req.CaseManager,
	}
	if priority, ok := req.Priority.Get(); ok {
		params.Priority = util.Some(cases.Priority(priority))
	}
	if status, ok := req.Status.Get(); ok {
		params.Status = util.Some(cases.Status(status))
	}

	updated, err := h.cases.UpdateCase(c.UserContext(), middleware.Actor(c), c.Params("id"), params)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !updated.IsSet {
		return notFound(c, "case")
	}

	return c.JSON(updated.Val)
}

func (h *CaseHandler) SetStatus(c *fiber.Ctx) error {
	var req setStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.cases.SetStatus(c.UserContext(), middleware.Actor(c), c.Params("id"), cases.Status(req.Status))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !updated.IsSet {
		return notFound(c, "case")
	}

	return c.JSON(updated.Val)
}

func (h *CaseHandler) DeleteCase(c *fiber.Ctx) error {
	if err := h.cases.DeleteCase(c.UserContext(), middleware.Actor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CaseHandler) ListNotes(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.cases.GetCase(id).IsSet {
		return notFound(c, "case")
	}
	return c.JSON(fiber.Map{"notes": h.cases.ListNotes(id)})
}

func (h *CaseHandler) AddNote(c *fiber.Ctx) error {
	var req addNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	note, err := h.cases.AddNote(c.UserContext(), middleware.Actor(c), c.Params("id"), req.Content)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !note.IsSet {
		return notFound(c, "case")
	}

	return c.Status(fiber.StatusCreated).JSON(note.Val)
}

func (h *CaseHandler) ListAttachments(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.cases.GetCase(id).IsSet {
		return notFound(c, "case")
	}
	return c.JSON(fiber.Map{"attachments": attachmentViews(h.cases.ListAttachments(id))})
}

// UploadAttachment accepts a multipart form with the blob in field "file".
func (h *CaseHandler) UploadAttachment(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing file")
	}

	body, err := header.Open()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer body.Close()

	attachment, err := h.cases.UploadAttachment(c.UserContext(), middleware.Actor(c), c.Params("id"), storage.File{
		Name: header.Filename,
		Type: header.Header.Get(fiber.HeaderContentType),
		Size: header.Size,
		Body: body,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !attachment.IsSet {
		return notFound(c, "case")
	}

	return c.Status(fiber.StatusCreated).JSON(cases.NewAttachmentView(attachment.Val))
}

// DownloadAttachment redirects to the stored download URL.
func (h *CaseHandler) DownloadAttachment(c *fiber.Ctx) error {
	attachment, ok := h.cases.GetAttachment(c.Params("id"), c.Params("attachmentID")).Get()
	if !ok {
		return notFound(c, "attachment")
	}
	return c.Redirect(attachment.DownloadURL, fiber.StatusFound)
}

func attachmentViews(attachments []cases.Attachment) []cases.AttachmentView {
	views := make([]cases.AttachmentView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, cases.NewAttachmentView(a))
	}
	return views
}
