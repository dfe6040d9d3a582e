// Package payments wraps the Stripe payment-processor API behind a small
// interface so services depending on it can be tested with mocks.
package payments

import (
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// IntentClient exposes the subset of processor operations the order service
// requires.
type IntentClient interface {
	CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeClient implements IntentClient against Stripe.
type StripeClient struct{}

// NewStripeClient configures the global Stripe key once and returns a client.
func NewStripeClient(apiKey string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{}
}

// CreateIntent creates a payment intent via Stripe's API.
func (c *StripeClient) CreateIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}
