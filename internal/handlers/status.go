package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-docgen/internal/storage"
)

// StatusHandler serves job state reads
type StatusHandler struct {
	store *storage.MemoryJobStore
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store *storage.MemoryJobStore) *StatusHandler {
	return &StatusHandler{store: store}
}

// Handle returns the full current job record
func (h *StatusHandler) Handle(c *fiber.Ctx) error {
	jobID := c.Params("id")

	job, err := h.store.Get(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_STORE_READ",
		})
	}

	return c.JSON(job)
}

// List returns recent jobs, newest first
func (h *StatusHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"jobs": h.store.List(),
	})
}
