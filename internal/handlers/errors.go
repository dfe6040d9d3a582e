package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shoply/internal/repositories"
	"shoply/internal/services"
)

// statusFromError maps service and repository sentinel errors onto HTTP
// status codes. Anything unrecognized is an internal error.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrInsufficientInventory),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrOrderNotPending):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorJSON writes the standard error body with the status derived from err.
func errorJSON(c *fiber.Ctx, message string, err error) error {
	return c.Status(statusFromError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationJSON writes a 400 with one message per failed field.
func validationJSON(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	messages := make(map[string]string)
	for _, e := range validationErrors {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  messages,
	})
}
