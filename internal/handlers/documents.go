package handlers

import (
	"errors"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/video-docgen/internal/storage"
)

// DocumentsHandler serves the generated document catalog
type DocumentsHandler struct {
	catalog *storage.DocumentCatalog
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(catalog *storage.DocumentCatalog) *DocumentsHandler {
	return &DocumentsHandler{catalog: catalog}
}

// List returns recent document records
func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	records, err := h.catalog.List(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"documents": records})
}

// Markdown streams a document's rendered markdown
func (h *DocumentsHandler) Markdown(c *fiber.Ctx) error {
	jobID := c.Params("id")

	rec, err := h.catalog.Get(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Document not found",
				"code":  "ERR_DOC_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec.MarkdownPath == "" {
		return c.Status(404).JSON(fiber.Map{
			"error": "Document file not available",
			"code":  "ERR_DOC_NO_FILE",
		})
	}

	f, err := os.Open(rec.MarkdownPath)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read document file"})
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read document file"})
	}

	c.Set("Content-Type", "text/markdown; charset=utf-8")
	return c.Send(content)
}
