package kv

import (
	"time"

	"github.com/gofiber/storage/memory/v2"
)

const memoryGCInterval = 10 * time.Second

// NewMemory returns an in-process fiber.Storage that drops expired entries on
// its own. Its contents are lost on exit.
func NewMemory() *memory.Storage {
	return memory.New(memory.Config{
		GCInterval: memoryGCInterval,
	})
}
