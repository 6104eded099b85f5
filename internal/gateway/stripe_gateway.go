package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/venuehub/venue-booking/internal/domain"
)

// StripeGateway implements Gateway over Stripe PaymentIntents. The intent ID
// is our order reference.
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	Environment   string // "test" or "live"
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreateOrder creates a Stripe PaymentIntent for the purchase.
func (g *StripeGateway) CreateOrder(ctx context.Context, req *OrderRequest) (*Snapshot, error) {
	if req == nil || req.MerchantReference == "" {
		return nil, fmt.Errorf("merchant reference is required")
	}

	// Stripe expects the smallest currency unit
	amountInCents := int64(req.Amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"merchant_reference": req.MerchantReference,
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	return &Snapshot{
		OrderReference:    pi.ID,
		OrderStatus:       mapStripeStatus(pi.Status),
		TransactionStatus: string(pi.Status),
		Amount:            req.Amount,
		Currency:          req.Currency,
	}, nil
}

// CheckTransaction retrieves the PaymentIntent and translates its status.
func (g *StripeGateway) CheckTransaction(ctx context.Context, orderReference string) (*Snapshot, error) {
	if orderReference == "" {
		return nil, fmt.Errorf("order reference is required")
	}

	pi, err := paymentintent.Get(orderReference, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	return &Snapshot{
		OrderReference:    pi.ID,
		OrderStatus:       mapStripeStatus(pi.Status),
		TransactionStatus: string(pi.Status),
		Amount:            float64(pi.Amount) / 100,
		Currency:          string(pi.Currency),
	}, nil
}

// mapStripeStatus folds Stripe's PaymentIntent statuses into the order
// vocabulary. requires_capture means the funds are held but not captured.
func mapStripeStatus(s stripe.PaymentIntentStatus) OrderStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return OrderStatusPaid
	case stripe.PaymentIntentStatusCanceled:
		return OrderStatusCancelled
	case stripe.PaymentIntentStatusRequiresCapture:
		return OrderStatusAuthorised
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
		return OrderStatusPending
	}
	return OrderStatusUnknown
}
