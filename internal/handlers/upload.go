package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-docgen/internal/intake"
	"github.com/codebuildervaibhav/video-docgen/internal/types"
)

// UploadHandler handles video uploads
type UploadHandler struct {
	intake *intake.Intake
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(in *intake.Intake) *UploadHandler {
	return &UploadHandler{intake: in}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if declared := c.FormValue("mime_type"); declared != "" {
		mimeType = declared
	}

	src, err := file.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to read file",
			"code":  "ERR_READ_FAILED",
		})
	}
	defer src.Close()

	jobID, err := h.intake.Accept(file.Filename, file.Size, mimeType, src)
	if err != nil {
		var vErr *intake.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(400).JSON(fiber.Map{
				"error": vErr.Message,
				"code":  vErr.Code,
			})
		}
		log.Printf("Failed to accept upload: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"job_id": jobID,
		"status": types.StatusUploaded,
	})
}
