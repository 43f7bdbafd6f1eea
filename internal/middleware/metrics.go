package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/tempcast/tempcast/internal/metrics"
)

// RequestMetrics counts requests by method, route pattern and status.
// Errors are counted with the status the error handler will answer.
func RequestMetrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}

		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, strconv.Itoa(status))

		return err
	}
}
