package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"shoply/internal/middleware"
	"shoply/internal/services"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes; every route requires auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cart := router.Group("/cart", auth)
	cart.Get("/", h.HandleList)
	cart.Post("/", h.HandleAdd)
	cart.Put("/:id", h.HandleUpdate)
	cart.Delete("/:id", h.HandleRemove)
	cart.Delete("/", h.HandleClear)
}

// AddCartItemRequest is the body for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// UpdateCartItemRequest is the body for changing a line item's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleList returns the caller's cart joined with current catalog data.
func (h *CartHandler) HandleList(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	items, err := h.service.ListItems(user.ID)
	if err != nil {
		log.Printf("Error listing cart for user %d: %v", user.ID, err)
		return errorJSON(c, "Could not retrieve cart", err)
	}
	return c.JSON(items)
}

// HandleAdd adds a product to the caller's cart, merging with an existing
// line item for the same product.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	item, err := h.service.AddItem(user.ID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %d to cart for user %d: %v", req.ProductID, user.ID, err)
		return errorJSON(c, "Could not add to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdate sets the quantity of a line item the caller owns.
func (h *CartHandler) HandleUpdate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid cart item id",
		})
	}

	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	item, err := h.service.UpdateItem(user.ID, uint(id), req.Quantity)
	if err != nil {
		log.Printf("Error updating cart item %d for user %d: %v", id, user.ID, err)
		return errorJSON(c, "Could not update cart item", err)
	}
	return c.JSON(item)
}

// HandleRemove deletes a line item the caller owns.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid cart item id",
		})
	}

	if err := h.service.RemoveItem(user.ID, uint(id)); err != nil {
		log.Printf("Error removing cart item %d for user %d: %v", id, user.ID, err)
		return errorJSON(c, "Could not remove cart item", err)
	}
	return c.JSON(fiber.Map{"message": "Cart item removed successfully"})
}

// HandleClear empties the caller's cart; a no-op on an empty cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if err := h.service.Clear(user.ID); err != nil {
		log.Printf("Error clearing cart for user %d: %v", user.ID, err)
		return errorJSON(c, "Could not clear cart", err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared successfully"})
}
