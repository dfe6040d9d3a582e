package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shoply/internal/handlers"
	"shoply/internal/middleware"
	"shoply/internal/models"
	"shoply/internal/repositories"
	"shoply/internal/services"
)

var dbCounter int64

// stubIntentClient stands in for the payment processor.
type stubIntentClient struct{}

func (stubIntentClient) CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return &stripe.PaymentIntent{ClientSecret: "pi_test_secret"}, nil
}

// setupApp builds the full Fiber app against a fresh in-memory SQLite
// database, seeded with the demo admin and customer accounts.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	seedUser(t, userRepo, "admin@example.com", "Admin User", "admin123", models.RoleAdmin)
	seedUser(t, userRepo, "user@example.com", "Regular User", "user123", models.RoleCustomer)

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, stubIntentClient{}, nil)

	auth := middleware.AuthRequired(authService)
	admin := middleware.AdminRequired()

	app := fiber.New()
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	handlers.NewUserHandler(authService).RegisterRoutes(app, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(app, auth, admin)
	handlers.NewCartHandler(cartService).RegisterRoutes(app, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app, auth, admin)

	return app
}

func seedUser(t *testing.T, repo repositories.UserRepository, email, fullName, password string, role models.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repo.Create(&models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
	}))
}

// login obtains a bearer token through the form-encoded token endpoint.
func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/users/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func jsonRequest(method, path, token string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestHealthz(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/users/register", "", map[string]string{
		"email":     "new@example.com",
		"full_name": "New Customer",
		"password":  "secret123",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered map[string]interface{}
	decode(t, resp, &registered)
	assert.Equal(t, "new@example.com", registered["email"])
	assert.Equal(t, "customer", registered["role"])
	// The password hash is never echoed.
	assert.NotContains(t, registered, "password_hash")
	assert.NotContains(t, registered, "password")

	// Registering the same email twice fails with Conflict.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/users/register", "", map[string]string{
		"email":     "new@example.com",
		"full_name": "Impostor",
		"password":  "other",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	token := login(t, app, "new@example.com", "secret123")
	resp, err = app.Test(jsonRequest(http.MethodGet, "/users/me", token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me map[string]interface{}
	decode(t, resp, &me)
	assert.Equal(t, "new@example.com", me["email"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := setupApp(t)

	form := url.Values{}
	form.Set("username", "user@example.com")
	form.Set("password", "wrong")
	req := httptest.NewRequest(http.MethodPost, "/users/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/users/me", "/cart", "/orders"} {
		resp, err := app.Test(jsonRequest(http.MethodGet, path, "", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestProductMutationsAreAdminOnly(t *testing.T) {
	app := setupApp(t)
	customerToken := login(t, app, "user@example.com", "user123")

	payload := map[string]interface{}{
		"name":            "Casual T-Shirt",
		"description":     "Comfortable cotton t-shirt.",
		"price":           24.99,
		"image_url":       "https://example.com/shirt.jpg",
		"category":        "clothing",
		"inventory_count": 50,
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", customerToken, payload), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken := login(t, app, "admin@example.com", "admin123")
	resp, err = app.Test(jsonRequest(http.MethodPost, "/products", adminToken, payload), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Product
	decode(t, resp, &created)
	assert.NotZero(t, created.ID)

	// Anonymous reads work.
	resp, err = app.Test(jsonRequest(http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Customers cannot update or delete either.
	resp, err = app.Test(jsonRequest(http.MethodPut, fmt.Sprintf("/products/%d", created.ID), customerToken, payload), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodDelete, fmt.Sprintf("/products/%d", created.ID), customerToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetUnknownProductIsNotFound(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/products/9999", "", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestCheckoutFlow walks the full demo scenario: the admin stocks a product
// with a single unit, the customer carts and orders it, inventory drops to
// zero, and a second add-to-cart attempt fails.
func TestCheckoutFlow(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, "admin@example.com", "admin123")
	customerToken := login(t, app, "user@example.com", "user123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", adminToken, map[string]interface{}{
		"name":            "Limited Edition Print",
		"description":     "Only one available.",
		"price":           59.99,
		"image_url":       "https://example.com/print.jpg",
		"category":        "other",
		"inventory_count": 1,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var product models.Product
	decode(t, resp, &product)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/cart", customerToken, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"shipping_address": "1 Main St",
		"total_amount":     59.99,
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 1},
		},
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	decode(t, resp, &order)
	assert.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 59.99, order.Items[0].PriceAtPurchase)

	// Inventory dropped to zero.
	resp, err = app.Test(jsonRequest(http.MethodGet, fmt.Sprintf("/products/%d", product.ID), "", nil), -1)
	require.NoError(t, err)
	var after models.Product
	decode(t, resp, &after)
	assert.Equal(t, 0, after.InventoryCount)

	// The purchaser's cart was emptied.
	resp, err = app.Test(jsonRequest(http.MethodGet, "/cart", customerToken, nil), -1)
	require.NoError(t, err)
	var cart []models.CartItem
	decode(t, resp, &cart)
	assert.Empty(t, cart)

	// A second add-to-cart attempt for the depleted product fails.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/cart", customerToken, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartMergeAndOwnership(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, "admin@example.com", "admin123")
	customerToken := login(t, app, "user@example.com", "user123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", adminToken, map[string]interface{}{
		"name":            "Casual T-Shirt",
		"description":     "Comfortable cotton t-shirt.",
		"price":           24.99,
		"image_url":       "https://example.com/shirt.jpg",
		"category":        "clothing",
		"inventory_count": 10,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decode(t, resp, &product)

	// Adding 5 then 3 yields a single line item of quantity 8.
	for _, qty := range []int{5, 3} {
		resp, err = app.Test(jsonRequest(http.MethodPost, "/cart", customerToken, map[string]interface{}{
			"product_id": product.ID,
			"quantity":   qty,
		}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err = app.Test(jsonRequest(http.MethodGet, "/cart", customerToken, nil), -1)
	require.NoError(t, err)
	var cart []models.CartItem
	decode(t, resp, &cart)
	require.Len(t, cart, 1)
	assert.Equal(t, 8, cart[0].Quantity)
	itemID := cart[0].ID

	// Another account cannot touch the line item.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/users/register", "", map[string]string{
		"email":     "second@example.com",
		"full_name": "Second Customer",
		"password":  "secret123",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	otherToken := login(t, app, "second@example.com", "secret123")

	resp, err = app.Test(jsonRequest(http.MethodPut, fmt.Sprintf("/cart/%d", itemID), otherToken, map[string]interface{}{
		"quantity": 1,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Clearing an already empty cart still succeeds.
	resp, err = app.Test(jsonRequest(http.MethodDelete, "/cart", otherToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderStatusAndPayment(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, "admin@example.com", "admin123")
	customerToken := login(t, app, "user@example.com", "user123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", adminToken, map[string]interface{}{
		"name":            "Coffee Table",
		"description":     "Modern coffee table.",
		"price":           149.99,
		"image_url":       "https://example.com/table.jpg",
		"category":        "home",
		"inventory_count": 10,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decode(t, resp, &product)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"shipping_address": "1 Main St",
		"total_amount":     149.99,
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 1},
		},
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	// A pending order owned by the caller yields a client secret.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/orders/payment", customerToken, map[string]interface{}{
		"order_id": order.ID,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var payment map[string]string
	decode(t, resp, &payment)
	assert.Equal(t, "pi_test_secret", payment["client_secret"])

	// Customers cannot change order status.
	resp, err = app.Test(jsonRequest(http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID), customerToken, map[string]string{
		"status": "paid",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admins can.
	resp, err = app.Test(jsonRequest(http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID), adminToken, map[string]string{
		"status": "paid",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A payment intent for a non-pending order fails.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/orders/payment", customerToken, map[string]interface{}{
		"order_id": order.ID,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// An unknown status value is rejected.
	resp, err = app.Test(jsonRequest(http.MethodPut, fmt.Sprintf("/orders/%d/status", order.ID), adminToken, map[string]string{
		"status": "teleported",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderVisibilityScoping(t *testing.T) {
	app := setupApp(t)
	adminToken := login(t, app, "admin@example.com", "admin123")
	customerToken := login(t, app, "user@example.com", "user123")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", adminToken, map[string]interface{}{
		"name":            "Bestselling Novel",
		"description":     "Award-winning fiction.",
		"price":           19.99,
		"image_url":       "https://example.com/novel.jpg",
		"category":        "books",
		"inventory_count": 30,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decode(t, resp, &product)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"shipping_address": "1 Main St",
		"total_amount":     19.99,
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 1},
		},
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)

	// A stranger cannot read someone else's order; the admin can.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/users/register", "", map[string]string{
		"email":     "stranger@example.com",
		"full_name": "Stranger",
		"password":  "secret123",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	strangerToken := login(t, app, "stranger@example.com", "secret123")

	resp, err = app.Test(jsonRequest(http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), strangerToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), adminToken, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Listing: the stranger sees nothing, the admin sees the order.
	resp, err = app.Test(jsonRequest(http.MethodGet, "/orders", strangerToken, nil), -1)
	require.NoError(t, err)
	var strangerOrders []models.Order
	decode(t, resp, &strangerOrders)
	assert.Empty(t, strangerOrders)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/orders", adminToken, nil), -1)
	require.NoError(t, err)
	var allOrders []models.Order
	decode(t, resp, &allOrders)
	assert.Len(t, allOrders, 1)
}
