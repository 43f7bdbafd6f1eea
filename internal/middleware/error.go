package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/models"
	"github.com/tempcast/tempcast/internal/services"
)

// serviceStatus maps service error codes to HTTP statuses
var serviceStatus = map[string]int{
	services.CodeLocationNotFound:     fiber.StatusNotFound,
	services.CodeInvalidConfiguration: fiber.StatusBadRequest,
	services.CodeInvalidSeries:        fiber.StatusBadRequest,
	services.CodeInsufficientData:     fiber.StatusUnprocessableEntity,
	services.CodeNoResiduals:          fiber.StatusUnprocessableEntity,
	services.CodeNothingToForecast:    fiber.StatusUnprocessableEntity,
	services.CodeFetchFailed:          fiber.StatusBadGateway,
	services.CodeTimeout:              fiber.StatusGatewayTimeout,
}

// StatusFor returns the HTTP status an error handler answers err with
func StatusFor(err error) int {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		if status, ok := serviceStatus[svcErr.Code]; ok {
			return status
		}
		return fiber.StatusInternalServerError
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	return fiber.StatusInternalServerError
}

// ErrorHandler returns a custom error handler middleware
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		detail := models.ErrorDetail{
			Code:    "ERROR",
			Message: "Internal Server Error",
		}

		var svcErr *services.ServiceError
		var fe *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		case errors.As(err, &fe):
			detail.Message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", code,
				"error", err,
			)
		} else {
			logger.Debug("Request rejected",
				"path", c.Path(),
				"method", c.Method(),
				"status", code,
				"error", err,
			)
		}

		return c.Status(code).JSON(models.ErrorResponse{Error: detail})
	}
}
