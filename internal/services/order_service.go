package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"shoply/internal/models"
	"shoply/internal/repositories"
	"shoply/pkg/payments"
)

// EventPublisher publishes order lifecycle events to a message broker.
// A nil publisher disables publishing.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateOrderInput carries the caller-supplied fields of a new order.
// TotalAmount is trusted as given and not recomputed from the items.
type CreateOrderInput struct {
	ShippingAddress string           `json:"shipping_address"`
	TotalAmount     float64          `json:"total_amount"`
	Items           []OrderItemInput `json:"items"`
}

// OrderService handles business logic for orders and payments.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	payments    payments.IntentClient
	publisher   EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	cartRepo repositories.CartRepository,
	intents payments.IntentClient,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		payments:    intents,
		publisher:   publisher,
	}
}

// ListOrders returns every order for admins, or the caller's own orders
// for customers.
func (s *OrderService) ListOrders(user *models.User) ([]models.Order, error) {
	if user.IsAdmin() {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetByUser(user.ID)
}

// GetOrder retrieves a single order, visible to its owner or an admin.
func (s *OrderService) GetOrder(user *models.User, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && order.UserID != user.ID {
		return nil, fmt.Errorf("%w: order %d", ErrForbidden, orderID)
	}
	return order, nil
}

// CreateOrder validates each requested line against the catalog, snapshots
// the current unit price into the order item, decrements inventory, and
// unconditionally purges the purchaser's cart afterwards.
//
// Each line's inventory decrement is applied as soon as the line is
// validated. There is no transaction boundary across lines: when a later
// line fails, earlier decrements stay applied and no order is written.
func (s *OrderService) CreateOrder(user *models.User, input CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:          user.ID,
		ShippingAddress: input.ShippingAddress,
		TotalAmount:     input.TotalAmount,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	for _, line := range input.Items {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.InventoryCount < line.Quantity {
			return nil, fmt.Errorf("%w for product %s", ErrInsufficientInventory, product.Name)
		}

		product.InventoryCount -= line.Quantity
		if err := s.productRepo.Update(product); err != nil {
			return nil, fmt.Errorf("failed to decrement inventory for product %d: %w", product.ID, err)
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: product.Price,
			Product:         *product,
		})
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.cartRepo.DeleteByUser(user.ID); err != nil {
		log.Printf("Warning: failed to clear cart for user %d after order %d: %v", user.ID, order.ID, err)
	}

	s.publishEvent("order.created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	})

	return order, nil
}

// UpdateStatus sets the status of an order. Only enum membership is checked;
// the transition graph is not enforced.
func (s *OrderService) UpdateStatus(orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	s.publishEvent("order.status.updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})

	return order, nil
}

// CreatePaymentIntent asks the payment processor for an intent covering the
// order's total, in integer cents. Only the order's owner may pay, and only
// while the order is pending. The returned client secret completes the
// payment on the caller's side.
func (s *OrderService) CreatePaymentIntent(user *models.User, orderID uint) (string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", err
	}
	if order.UserID != user.ID {
		return "", fmt.Errorf("%w: order %d", ErrForbidden, orderID)
	}
	if order.Status != models.StatusPending {
		return "", fmt.Errorf("%w: order %d is %s", ErrOrderNotPending, orderID, order.Status)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.TotalAmount * 100)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.AddMetadata("order_id", strconv.FormatUint(uint64(order.ID), 10))
	params.SetIdempotencyKey(uuid.New().String())

	intent, err := s.payments.CreateIntent(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent for order %d: %w", orderID, err)
	}
	return intent.ClientSecret, nil
}

// publishEvent marshals and publishes an event, logging failures instead of
// surfacing them; event delivery is best-effort and never fails a request.
func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
