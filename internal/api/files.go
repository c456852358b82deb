package api

import (
	"errors"
	"log/slog"
	"net/url"
	"os"

	"github.com/freekieb7/casetrack/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// FileOpener opens locally stored attachments by key.
type FileOpener interface {
	Open(key string) (*os.File, error)
}

type FileHandler struct {
	logger *slog.Logger
	files  FileOpener
}

func NewFileHandler(logger *slog.Logger, files FileOpener) *FileHandler {
	return &FileHandler{logger: logger, files: files}
}

func (h *FileHandler) Serve(c *fiber.Ctx) error {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		return badRequest(c, "invalid file key")
	}

	f, err := h.files.Open(key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			return notFound(c, "file")
		case errors.Is(err, storage.ErrInvalidKey):
			return badRequest(c, "invalid file key")
		default:
			return respondError(c, h.logger, err)
		}
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentDisposition, "attachment")
	c.Type("bin")
	return c.SendStream(f, int(stat.Size()))
}
