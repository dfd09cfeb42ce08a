package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-docgen/internal/pipeline"
	"github.com/codebuildervaibhav/video-docgen/internal/queue"
	"github.com/codebuildervaibhav/video-docgen/internal/storage"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// ProcessHandler accepts processing requests for uploaded jobs
type ProcessHandler struct {
	pool *queue.WorkerPool
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(pool *queue.WorkerPool) *ProcessHandler {
	return &ProcessHandler{pool: pool}
}

// ProcessRequest is the request body
type ProcessRequest struct {
	JobID string `json:"job_id"`
}

// Handle starts the pipeline for an uploaded job. The call returns as soon
// as the job is claimed; the outcome is observed via the status endpoint.
func (h *ProcessHandler) Handle(c *fiber.Ctx) error {
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.JobID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "job_id is required",
			"code":  "ERR_NO_JOB_ID",
		})
	}

	if err := h.pool.Submit(req.JobID); err != nil {
		switch {
		case errors.Is(err, storage.ErrJobNotFound):
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
		case errors.Is(err, pipeline.ErrAlreadyRunning):
			return c.Status(409).JSON(fiber.Map{
				"error": "Job is already being processed",
				"code":  "ERR_JOB_RUNNING",
			})
		case errors.Is(err, pipeline.ErrJobTerminal):
			return c.Status(409).JSON(fiber.Map{
				"error": "Job already finished; upload again to retry",
				"code":  "ERR_JOB_FINISHED",
			})
		default:
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "ERR_PROCESS_FAILED",
			})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": req.JobID,
		"status": types.StatusTranscribing,
	})
}
