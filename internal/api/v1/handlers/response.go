package handlers

import (
	"errors"

	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"message": message,
		"success": true,
		"status":  status,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	})
}

func validationError(c *fiber.Ctx, err error) error {
	logger.AuditLogger.Warn("Validation error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"errors":  err.Error(),
		"success": false,
		"status":  fiber.StatusBadRequest,
	})
}

// storeError maps repository errors to responses; anything unexpected is
// logged and reported as a 500 with a generic message.
func storeError(c *fiber.Ctx, err error, notFound string, action string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return respondError(c, fiber.StatusConflict, "Already exists")
	}
	logger.ErrorLogger.Error("Error "+action, zap.String("path", c.Path()), zap.Error(err))
	return respondError(c, fiber.StatusInternalServerError, "Error "+action)
}
