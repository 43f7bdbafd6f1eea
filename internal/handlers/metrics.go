package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics serves the Prometheus registry of the handler's metrics.
// Without metrics the route answers 404.
func (h *Handler) Metrics() fiber.Handler {
	reg := h.metrics.Registry()
	if reg == nil {
		return h.NotFound
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}
