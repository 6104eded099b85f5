package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func TestNewStripeGateway_Validation(t *testing.T) {
	_, err := NewStripeGateway(nil)
	assert.Error(t, err)

	_, err = NewStripeGateway(&StripeGatewayConfig{})
	assert.Error(t, err)

	g, err := NewStripeGateway(&StripeGatewayConfig{SecretKey: "sk_test_123"})
	assert.NoError(t, err)
	assert.Equal(t, "stripe", g.Name())
}

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		status stripe.PaymentIntentStatus
		want   OrderStatus
	}{
		{stripe.PaymentIntentStatusSucceeded, OrderStatusPaid},
		{stripe.PaymentIntentStatusCanceled, OrderStatusCancelled},
		{stripe.PaymentIntentStatusRequiresCapture, OrderStatusAuthorised},
		{stripe.PaymentIntentStatusProcessing, OrderStatusPending},
		{stripe.PaymentIntentStatusRequiresPaymentMethod, OrderStatusPending},
		{stripe.PaymentIntentStatusRequiresConfirmation, OrderStatusPending},
		{stripe.PaymentIntentStatusRequiresAction, OrderStatusPending},
		{stripe.PaymentIntentStatus("something_new"), OrderStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, mapStripeStatus(tt.status))
		})
	}
}
