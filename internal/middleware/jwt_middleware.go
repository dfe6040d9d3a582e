package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shoply/internal/models"
	"shoply/internal/services"
)

const userLocalKey = "current_user"

// AuthRequired is a Fiber middleware that resolves the bearer token to a
// user and stores it in the request context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		user, err := authService.ResolveToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// AdminRequired gates a route on the admin role. Must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin role required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired, or nil on an
// unauthenticated request.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
