package handlers

import (
	"errors"
	"strings"

	"pfms/internal/repository"
	"pfms/internal/service"
	"pfms/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultUserID = "demo-user"

// resolveUserID prefers the authenticated caller, then the id sent by the
// client, then the demo user.
func resolveUserID(c *fiber.Ctx, fromBody string) string {
	if id, ok := c.Locals(middleware.UserIDKey).(string); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query("userId")); id != "" {
		return id
	}
	return defaultUserID
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// writeError maps service errors onto status codes. Anything unrecognised
// is logged and answered with fallback.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, service.ErrValidation):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrGmailNotLinked):
		status, message = fiber.StatusBadRequest, "Gmail not connected"
	case errors.Is(err, repository.ErrNotFound):
		status, message = fiber.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrDuplicateGoal):
		status, message = fiber.StatusConflict, service.ErrDuplicateGoal.Error()
	case errors.Is(err, service.ErrConfiguration), errors.Is(err, service.ErrOAuthNotConfigured):
		message = err.Error()
	case errors.Is(err, service.ErrUpstream):
		status = fiber.StatusBadGateway
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
