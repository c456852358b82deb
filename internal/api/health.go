package api

import (
	"time"

	"github.com/freekieb7/casetrack/internal/kv"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store *kv.Store
}

func NewHealthHandler(store *kv.Store) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

func (h *HealthHandler) Healthy(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": "store is unreachable",
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
