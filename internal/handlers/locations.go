package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tempcast/tempcast/internal/models"
)

// ListLocations handles GET /v1/locations
func (h *Handler) ListLocations(c *fiber.Ctx) error {
	locations := make([]models.LocationResponse, 0, len(h.locations))
	for _, loc := range h.locations {
		locations = append(locations, models.LocationResponse{
			Name:      loc.Name,
			Region:    loc.Slug(),
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		})
	}

	return c.JSON(models.LocationListResponse{
		Locations: locations,
		Count:     len(locations),
	})
}
