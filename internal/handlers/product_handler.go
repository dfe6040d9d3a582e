package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"shoply/internal/models"
	"shoply/internal/services"
)

// ProductHandler handles HTTP requests for the catalog. Reads are anonymous;
// mutations are restricted to admins by the middleware chain.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Get("/:id", h.HandleGetByID)
	products.Post("/", auth, admin, h.HandleCreate)
	products.Put("/:id", auth, admin, h.HandleUpdate)
	products.Delete("/:id", auth, admin, h.HandleDelete)
}

// ProductRequest is the body for product creation and full-replace updates.
// Values are not range-checked beyond the category enum.
type ProductRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Description    string                 `json:"description"`
	Price          float64                `json:"price"`
	ImageURL       string                 `json:"image_url"`
	Category       models.ProductCategory `json:"category" validate:"required,oneof=electronics clothing home books toys other"`
	InventoryCount int                    `json:"inventory_count"`
}

func (r *ProductRequest) toModel() *models.Product {
	return &models.Product{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		ImageURL:       r.ImageURL,
		Category:       r.Category,
		InventoryCount: r.InventoryCount,
	}
}

// HandleList returns the whole catalog.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return errorJSON(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetByID returns one product.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	product, err := h.service.GetProductByID(uint(id))
	if err != nil {
		return errorJSON(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreate adds a product to the catalog.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationJSON(c, err)
	}

	product := req.toModel()
	if err := h.service.CreateProduct(product); err != nil {
		log.Printf("Error creating product: %v", err)
		return errorJSON(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdate fully replaces the mutable fields of a product.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationJSON(c, err)
	}

	product, err := h.service.UpdateProduct(uint(id), req.toModel())
	if err != nil {
		log.Printf("Error updating product %d: %v", id, err)
		return errorJSON(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDelete removes a product from the catalog.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product id",
		})
	}

	if err := h.service.DeleteProduct(uint(id)); err != nil {
		log.Printf("Error deleting product %d: %v", id, err)
		return errorJSON(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
