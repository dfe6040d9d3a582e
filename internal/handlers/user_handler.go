package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shoply/internal/middleware"
	"shoply/internal/services"
)

// UserHandler handles HTTP requests for accounts and authentication.
type UserHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes. Only /users/me requires auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users")
	users.Post("/register", h.HandleRegister)
	users.Post("/token", h.HandleToken)
	users.Get("/me", auth, h.HandleMe)
}

// RegisterRequest is the body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a new customer account.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationJSON(c, err)
	}

	user, err := h.authService.Register(req.Email, req.FullName, req.Password)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Email, err)
		return errorJSON(c, "Registration failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// TokenRequest is the login form. OAuth2-style: the username field carries
// the email.
type TokenRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// HandleToken authenticates form credentials and issues a bearer token.
func (h *UserHandler) HandleToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationJSON(c, err)
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", req.Username, err)
		return errorJSON(c, "Authentication failed", err)
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// HandleMe returns the account behind the presented bearer token.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}
