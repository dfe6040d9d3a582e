package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"shoply/internal/middleware"
	"shoply/internal/models"
	"shoply/internal/services"
)

// OrderHandler handles HTTP requests for orders and payment intents.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the order routes; every route requires auth and
// status updates additionally require the admin role.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	orders := router.Group("/orders", auth)
	orders.Get("/", h.HandleList)
	orders.Post("/", h.HandleCreate)
	orders.Post("/payment", h.HandleCreatePaymentIntent)
	orders.Get("/:id", h.HandleGetByID)
	orders.Put("/:id/status", admin, h.HandleUpdateStatus)
}

// UpdateStatusRequest is the body for an order status change.
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// PaymentIntentRequest is the body for requesting a payment intent.
type PaymentIntentRequest struct {
	OrderID uint `json:"order_id"`
}

// HandleList returns all orders for admins, the caller's own otherwise.
func (h *OrderHandler) HandleList(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	orders, err := h.service.ListOrders(user)
	if err != nil {
		log.Printf("Error listing orders for user %d: %v", user.ID, err)
		return errorJSON(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetByID returns one order, visible to its owner or an admin.
func (h *OrderHandler) HandleGetByID(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	order, err := h.service.GetOrder(user, uint(id))
	if err != nil {
		return errorJSON(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreate places a new order from the request's line items.
func (h *OrderHandler) HandleCreate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if len(input.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "At least one item is required",
		})
	}

	order, err := h.service.CreateOrder(user, input)
	if err != nil {
		log.Printf("Error creating order for user %d: %v", user.ID, err)
		return errorJSON(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleUpdateStatus sets the status of an order. Admin only.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order id",
		})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateStatus(uint(id), req.Status)
	if err != nil {
		log.Printf("Error updating status for order %d: %v", id, err)
		return errorJSON(c, "Could not update order status", err)
	}
	return c.JSON(order)
}

// HandleCreatePaymentIntent asks the payment processor for an intent covering
// a pending order owned by the caller.
func (h *OrderHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req PaymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	clientSecret, err := h.service.CreatePaymentIntent(user, req.OrderID)
	if err != nil {
		log.Printf("Error creating payment intent for order %d: %v", req.OrderID, err)
		return errorJSON(c, "Could not create payment intent", err)
	}
	return c.JSON(fiber.Map{"client_secret": clientSecret})
}
