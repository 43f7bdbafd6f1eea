package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tempcast/tempcast/internal/models"
)

// Health reports liveness with the build version and the served locations
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Locations: len(h.locations),
		Metrics:   h.metrics != nil,
	})
}

// NotFound answers unmatched routes with the standard error envelope
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
